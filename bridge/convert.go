package bridge

import (
	"github.com/isesword/framebridge/internal/engine"
	"github.com/isesword/framebridge/plan"
)

var timeUnits = [...]engine.TimeUnit{
	plan.Nanoseconds:  engine.Nanoseconds,
	plan.Microseconds: engine.Microseconds,
	plan.Milliseconds: engine.Milliseconds,
}

func toEngineUnit(u plan.TimeUnit) (engine.TimeUnit, error) {
	if int(u) >= len(timeUnits) {
		return 0, errorMsg(ErrInvalidArgument, "unknown time unit %s", u)
	}
	return timeUnits[u], nil
}

func fromEngineUnit(u engine.TimeUnit) plan.TimeUnit {
	switch u {
	case engine.Nanoseconds:
		return plan.Nanoseconds
	case engine.Microseconds:
		return plan.Microseconds
	}
	return plan.Milliseconds
}

func toEngineType(dt plan.DataType) (engine.DataType, error) {
	switch dt.Kind {
	case plan.TypeInt64:
		return engine.Int64, nil
	case plan.TypeFloat32:
		return engine.Float32, nil
	case plan.TypeFloat64:
		return engine.Float64, nil
	case plan.TypeBoolean:
		return engine.Boolean, nil
	case plan.TypeDatetime:
		u, err := toEngineUnit(dt.Unit)
		if err != nil {
			return engine.DataType{}, err
		}
		return engine.Datetime(u), nil
	}
	return engine.DataType{}, errorMsg(ErrInvalidArgument, "unknown data type %s", dt)
}

// fromEngineType 只有五种类型能回到宿主
func fromEngineType(dt engine.DataType) (plan.DataType, error) {
	switch dt.Kind {
	case engine.KindInt64:
		return plan.Int64, nil
	case engine.KindFloat32:
		return plan.Float32, nil
	case engine.KindFloat64:
		return plan.Float64, nil
	case engine.KindBoolean:
		return plan.Boolean, nil
	case engine.KindDatetime:
		return plan.Datetime(fromEngineUnit(dt.Unit)), nil
	}
	return plan.DataType{}, errorMsg(ErrUnsupported, "dtype %s has no host representation", dt)
}

func toEngineSortOptions(o plan.SortOptions) engine.SortOptions {
	return engine.SortOptions{
		Descending:    o.Descending,
		NullsLast:     o.NullsLast,
		Multithreaded: o.Multithreaded,
		MaintainOrder: o.MaintainOrder,
	}
}

func toEngineSortMultiple(o plan.SortMultipleOptions) engine.SortMultipleOptions {
	return engine.SortMultipleOptions{
		Descending:    o.Descending,
		NullsLast:     o.NullsLast,
		Multithreaded: o.Multithreaded,
		MaintainOrder: o.MaintainOrder,
	}
}

var sortedFlags = [...]engine.IsSorted{
	plan.SortedAscending:  engine.SortedAscending,
	plan.SortedDescending: engine.SortedDescending,
	plan.SortedNot:        engine.SortedNot,
}

func toEngineSorted(s plan.IsSorted) (engine.IsSorted, error) {
	if int(s) >= len(sortedFlags) {
		return 0, errorMsg(ErrInvalidArgument, "unknown sorted flag %d", s)
	}
	return sortedFlags[s], nil
}

// toEngineDuration 字符串优先，否则按槽位数
func toEngineDuration(d plan.Duration) (engine.Duration, error) {
	if d.Spec == "" {
		return engine.DurationSlots(d.Slots), nil
	}
	out, err := engine.ParseDuration(d.Spec)
	if err != nil {
		return engine.Duration{}, errorWithDesc(err, "invalid duration")
	}
	return out, nil
}

var comparisons = [...]engine.Operator{
	plan.Eq:    engine.OpEq,
	plan.NotEq: engine.OpNotEq,
	plan.Lt:    engine.OpLt,
	plan.LtEq:  engine.OpLtEq,
	plan.Gt:    engine.OpGt,
	plan.GtEq:  engine.OpGtEq,
}

func toEngineComparison(c plan.Comparison) (engine.Operator, error) {
	if int(c) >= len(comparisons) {
		return 0, errorMsg(ErrInvalidArgument, "unknown comparison %d", c)
	}
	return comparisons[c], nil
}
