package plan

// Buffer 批量数值缓冲（封闭和类型）。
// 零拷贝构造时原生列直接引用这段内存，句柄存活期间宿主不得修改或释放它。
type Buffer interface {
	isBuffer()
	Len() int
}

// BoolBuffer 每个元素一个字节，非 0 即真
type BoolBuffer []uint8

type Int64Buffer []int64
type Float32Buffer []float32
type Float64Buffer []float64

func (BoolBuffer) isBuffer()    {}
func (Int64Buffer) isBuffer()   {}
func (Float32Buffer) isBuffer() {}
func (Float64Buffer) isBuffer() {}

func (b BoolBuffer) Len() int    { return len(b) }
func (b Int64Buffer) Len() int   { return len(b) }
func (b Float32Buffer) Len() int { return len(b) }
func (b Float64Buffer) Len() int { return len(b) }

// NamedBuffer 带列名的缓冲
type NamedBuffer struct {
	Name string
	Data Buffer
}
