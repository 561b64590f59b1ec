package testdata

type Size struct {
	Name string
	N    int
}

// Sizes straddle the 1 MiB block boundary on both sides.
var Sizes []Size = []Size{
	{"1B", 1},
	{"64B", 64},
	{"8KiB", 8 * 1024},
	{"1MiB-1", 1024*1024 - 1},
	{"1MiB", 1024 * 1024},
	{"1MiB+1", 1024*1024 + 1},
	{"2.5MiB", 2*1024*1024 + 512*1024},
	{"3MiB", 3 * 1024 * 1024},
}
