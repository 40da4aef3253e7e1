// Package pools provides object pooling for reducing GC pressure in the
// FTL's hot translate/clean path.
//
//   - BytePool: size-class based page-buffer pooling for scratch staging
//   - Uint64Pool: pooling for log-block manifest offset slices
package pools
