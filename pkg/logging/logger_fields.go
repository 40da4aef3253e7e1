package logging

import (
	"time"
)

// Field constructors, kept to the set the FTL core and its cmd/ drivers
// actually log with.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// LogicalAddr tags a log line with the host logical address a translate()
// call is operating on.
func LogicalAddr(l uint64) Field {
	return Uint64("logical_addr", l)
}

// PhysicalBlock tags a log line with a physical block index involved in a
// garbage-collection operation.
func PhysicalBlock(b uint64) Field {
	return Uint64("physical_block", b)
}

// EraseCount tags a log line with a block's current erase count.
func EraseCount(n uint32) Field {
	return Uint64("erase_count", uint64(n))
}

// Operation tags a log line with the host event type (READ/WRITE/...).
func Operation(op string) Field {
	return String("operation", op)
}

// Count tags a log line with a plain integer tally.
func Count(n int) Field {
	return Int("count", n)
}
