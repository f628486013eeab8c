// Package cache keeps parsed tag files alive for the lifetime of a process.
//
// Each tag file is parsed once into a symbolmap.Map. Later requests reuse the
// map until the file's modification time moves forward or the entry was built
// by a different resolver version, at which point the whole map is rebuilt:
//
//	mgr, err := cache.New(cache.WithLogger(logger))
//	symbols, err := mgr.Get("docs/PolyVox.tag")
//	entry, err := symbols.Lookup("PolyVox::Volume::getVoxelAt(int, int, int)")
//
// A tag file that is missing or unparseable is remembered as unavailable and
// is not retried until Invalidate or Reset is called.
package cache
