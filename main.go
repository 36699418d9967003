package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/isesword/framebridge/bridge"
	"github.com/isesword/framebridge/plan"
	"github.com/isesword/framebridge/polars"
)

func main() {
	cfg := &bridge.Config{}
	if os.Getenv("FRAMEBRIDGE_DEBUG") != "" {
		level := slog.LevelDebug
		cfg.LogLevel = &level
	}

	// 嵌入宿主运行时：从动态库加载全局锁入口
	if os.Getenv("FRAMEBRIDGE_RUNTIME_LIB") != "" {
		lock, err := bridge.LoadRuntimeLock("", os.Getenv("FRAMEBRIDGE_RELEASE_SYM"), os.Getenv("FRAMEBRIDGE_ACQUIRE_SYM"))
		if err != nil {
			log.Fatalf("Failed to load runtime lock: %v", err)
		}
		cfg.Lock = lock
		cfg.LockHeldByCaller = true
	}

	brg := bridge.New(cfg)
	fmt.Printf("Engine threads: %d\n", brg.Threads())

	fmt.Println("\n=== Testing CSV Processing ===")
	if err := testCSVProcessing(brg); err != nil {
		log.Fatalf("CSV processing test failed: %v", err)
	}

	fmt.Println("\n=== Testing Fluent API ===")
	if err := testFluentAPI(brg); err != nil {
		log.Fatalf("Fluent API test failed: %v", err)
	}

	fmt.Println("\n=== Testing Buffers ===")
	if err := testBuffers(brg); err != nil {
		log.Fatalf("Buffer test failed: %v", err)
	}

	fmt.Printf("\nLive handles: %d\n", brg.LiveHandles())
	fmt.Println("\n✅ All tests passed!")
}

func testCSVProcessing(brg *bridge.Bridge) error {
	// 1. 读取 CSV 文件
	fmt.Println("\n1. Reading CSV file...")
	df, err := polars.ReadCSV(brg, "testdata/sample.csv", plan.ReadCSV{HasHeader: true})
	if err != nil {
		return fmt.Errorf("failed to read CSV: %w", err)
	}
	defer df.Free()

	rows, cols, err := df.Shape()
	if err != nil {
		return err
	}
	fmt.Printf("   Loaded %d rows x %d columns\n", rows, cols)

	// 2. 写入 parquet 再读回
	fmt.Println("\n2. Writing parquet...")
	path := filepath.Join(os.TempDir(), "framebridge_sample.parquet")
	defer os.Remove(path)
	n, err := df.WriteParquet(path)
	if err != nil {
		return fmt.Errorf("failed to write parquet: %w", err)
	}
	fmt.Printf("   Wrote %d bytes to %s\n", n, path)

	back, err := polars.ReadParquet(brg, path)
	if err != nil {
		return fmt.Errorf("failed to read parquet: %w", err)
	}
	defer back.Free()

	same, err := df.Equal(back)
	if err != nil {
		return err
	}
	fmt.Printf("   Round trip equal: %v\n", same)

	// 3. 前 5 行
	fmt.Println("\n3. Results (first 5 rows):")
	head, err := df.Head(5)
	if err != nil {
		return err
	}
	defer head.Free()
	return head.Print()
}

func testFluentAPI(brg *bridge.Bridge) error {
	df, err := polars.ReadCSV(brg, "testdata/sample.csv", plan.ReadCSV{HasHeader: true})
	if err != nil {
		return fmt.Errorf("failed to read CSV: %w", err)
	}
	defer df.Free()

	// 1. 使用 Fluent API 构建查询
	fmt.Println("\n1. Building query with Fluent API...")
	fmt.Println("   Query: Filter department=='Engineering' -> Select name,salary -> Limit 3")
	lf := df.Filter(polars.Col("department").Eq(polars.Lit("Engineering"))).
		Select(polars.Col("name"), polars.Col("salary")).
		Limit(3)
	defer lf.Free()

	desc, err := lf.Describe()
	if err != nil {
		return err
	}
	fmt.Printf("   Plan:\n%s\n", desc)

	result, err := lf.CollectRows()
	if err != nil {
		return fmt.Errorf("failed to collect: %w", err)
	}
	fmt.Println("\n2. Results:")
	for i, row := range result {
		fmt.Printf("   Row %d: %v\n", i+1, row)
	}

	// 3. 复杂表达式
	fmt.Println("\n3. Testing complex expression...")
	fmt.Println("   Query: salary > 50000 AND age >= 25, rank by salary within department")
	out, err := df.Filter(polars.Col("salary").Gt(polars.Lit(50000)).And(polars.Col("age").Ge(polars.Lit(25)))).
		WithColumns(
			polars.Col("salary").Max().Over(polars.Col("department")).Alias("dept_max"),
			polars.When(polars.Col("age").Ge(polars.Lit(30))).
				Then(polars.Lit("senior")).
				Otherwise(polars.Lit("junior")).
				Alias("level"),
		).
		Collect()
	if err != nil {
		return fmt.Errorf("failed to collect: %w", err)
	}
	defer out.Free()
	return out.Print()
}

func testBuffers(brg *bridge.Bridge) error {
	// 零拷贝：原生列直接引用这两段内存
	units := plan.Int64Buffer{3, 1, 2}
	price := plan.Float64Buffer{9.5, 3.25, 7}
	df, err := polars.NewDataFrameZeroCopy(brg,
		plan.NamedBuffer{Name: "units", Data: units},
		plan.NamedBuffer{Name: "price", Data: price},
	)
	if err != nil {
		return err
	}
	defer df.Free()

	sorted, err := df.Sort([]string{"units"}, plan.SortMultipleOptions{})
	if err != nil {
		return err
	}
	defer sorted.Free()

	s, err := sorted.Column("price")
	if err != nil {
		return err
	}
	defer s.Free()

	doubled, err := s.Mul(2)
	if err != nil {
		return err
	}
	defer doubled.Free()

	vals, err := doubled.Float64s()
	if err != nil {
		return err
	}
	sum, err := doubled.Sum()
	if err != nil {
		return err
	}
	fmt.Printf("   price x2 (sorted by units): %v, sum %.2f\n", vals, sum)
	return nil
}
