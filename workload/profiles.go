package workload

// SmallProfile grows the dictionary tenfold with a quarter of each round's
// changes deleting keys.
func SmallProfile(rounds int64) Params {
	return Params{
		KeyMean:        16,
		KeyStdDev:      3,
		ValueMean:      100,
		ValueStdDev:    1200,
		InitialSize:    1_000,
		FinalSize:      10_000,
		Rounds:         rounds,
		ChangePerRound: 500,
		DeleteFraction: 0.25,
	}
}

// ChurnProfile holds the entry count flat while half of each round's
// changes delete keys, so every delete is matched by a create.
func ChurnProfile(rounds int64) Params {
	return Params{
		KeyMean:        24,
		KeyStdDev:      2,
		ValueMean:      512,
		ValueStdDev:    4096,
		InitialSize:    5_000,
		FinalSize:      5_000,
		Rounds:         rounds,
		ChangePerRound: 2_000,
		DeleteFraction: 0.5,
	}
}

// AscendingProfile feeds keys in ascending order, the worst case for an
// unbalanced tree: the tree degenerates into a chain and its height
// approaches the entry count.
func AscendingProfile(rounds int64) Params {
	return Params{
		SequentialKeys: true,
		ValueMean:      32,
		ValueStdDev:    8,
		InitialSize:    2_000,
		FinalSize:      8_000,
		Rounds:         rounds,
		ChangePerRound: 200,
		DeleteFraction: 0.1,
	}
}
