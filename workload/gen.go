// Package workload generates randomized dictionary workloads and drives
// them against a sorted dictionary, cross-checking the results against a
// reference map as it goes.
package workload

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/tidwall/btree"
)

// Params describes a generated workload. Key and value lengths are drawn
// from a normal distribution; the entry count grows linearly from
// InitialSize to FinalSize over Rounds rounds, with ChangePerRound updates
// and deletes mixed in along the way.
type Params struct {
	Seed           uint64
	KeyMean        int
	KeyStdDev      int
	ValueMean      int
	ValueStdDev    int
	InitialSize    int
	FinalSize      int
	Rounds         int64
	ChangePerRound int
	DeleteFraction float64

	// SequentialKeys generates fresh keys in ascending order instead of
	// random bytes, which degenerates an unbalanced tree into a chain.
	SequentialKeys bool
}

// Op is one generated dictionary operation. A delete carries no value; a
// set either creates the key or updates it, depending on whether the key
// was live when the op was generated.
type Op struct {
	Round  int64
	Key    string
	Value  []byte
	Delete bool
}

// NoKeys reports that an update or delete was requested before any key was
// live. Generation falls back to a create when it happens.
var NoKeys = errors.New("no keys")

type opKind int

const (
	opCreate opKind = iota
	opUpdate
	opDelete
)

// Iterator yields one Op at a time. Streams are deterministic for a given
// Params: the same seed replays the same ops.
type Iterator struct {
	params Params
	rng    *rand.Rand
	// live tracks keys currently in the dictionary, indexable by position
	// so updates and deletes can sample uniformly.
	live              *btree.BTreeG[string]
	createsPerRound   float64
	createAccumulator float64
	keyCounter        int64
	round             int64
	ops               []Op
	idx               int
	op                Op
	valid             bool
}

// Iterator validates the parameters and returns an iterator positioned on
// the first op.
func (p Params) Iterator() (*Iterator, error) {
	if p.FinalSize < p.InitialSize {
		return nil, fmt.Errorf("final size must not be smaller than initial size")
	}
	if p.Rounds < 1 {
		return nil, fmt.Errorf("at least one round is required")
	}
	if p.Rounds == 1 && p.FinalSize != p.InitialSize {
		return nil, fmt.Errorf("growth needs at least two rounds: round 1 only creates the initial entries")
	}
	if p.ChangePerRound < 0 {
		return nil, fmt.Errorf("change per round must not be negative")
	}
	if p.DeleteFraction < 0 || p.DeleteFraction > 1 {
		return nil, fmt.Errorf("delete fraction must be within [0, 1]")
	}
	if !p.SequentialKeys && p.KeyMean < 1 {
		return nil, fmt.Errorf("key mean must be at least 1")
	}
	if p.ValueMean < 1 {
		return nil, fmt.Errorf("value mean must be at least 1")
	}

	it := &Iterator{
		params: p,
		rng:    rand.New(rand.NewPCG(p.Seed, 0)),
		live:   btree.NewBTreeG(func(a, b string) bool { return a < b }),
	}
	if p.Rounds > 1 {
		it.createsPerRound = float64(p.FinalSize-p.InitialSize) / float64(p.Rounds-1)
	}
	it.Next()
	return it, nil
}

// Next advances to the next op, crossing round boundaries as needed. After
// the last round Valid reports false.
func (it *Iterator) Next() {
	for it.idx >= len(it.ops) {
		if it.round >= it.params.Rounds {
			it.valid = false
			return
		}
		it.nextRound()
	}
	it.op = it.ops[it.idx]
	it.idx++
	it.valid = true
}

func (it *Iterator) Valid() bool { return it.valid }

// Op returns the current op. Only valid while Valid reports true.
func (it *Iterator) Op() Op { return it.op }

// Round returns the round of the current op, starting at 1.
func (it *Iterator) Round() int64 { return it.round }

// nextRound plans and generates one round of ops. Round 1 creates the
// initial entries; later rounds split ChangePerRound between deletes and
// updates, and every delete is matched by an extra create so the entry
// count keeps its linear path to FinalSize.
func (it *Iterator) nextRound() {
	it.round++

	var deletes, updates, creates int
	if it.round == 1 {
		creates = it.params.InitialSize
	} else {
		deletes = int(it.params.DeleteFraction * float64(it.params.ChangePerRound))
		updates = it.params.ChangePerRound - deletes
		it.createAccumulator += it.createsPerRound
		clamped := int(it.createAccumulator)
		creates = clamped + deletes
		it.createAccumulator -= float64(clamped)
	}

	kinds := make([]opKind, 0, deletes+updates+creates)
	for i := 0; i < deletes; i++ {
		kinds = append(kinds, opDelete)
	}
	for i := 0; i < updates; i++ {
		kinds = append(kinds, opUpdate)
	}
	for i := 0; i < creates; i++ {
		kinds = append(kinds, opCreate)
	}
	it.rng.Shuffle(len(kinds), func(i, j int) {
		kinds[i], kinds[j] = kinds[j], kinds[i]
	})

	it.ops = it.ops[:0]
	for _, kind := range kinds {
		it.ops = append(it.ops, it.genOp(kind))
	}
	it.idx = 0
}

func (it *Iterator) genOp(kind opKind) Op {
	switch kind {
	case opUpdate:
		key, err := it.sampleKey()
		if errors.Is(err, NoKeys) {
			return it.genCreate()
		}
		return Op{Round: it.round, Key: key, Value: it.genValue()}
	case opDelete:
		key, err := it.sampleKey()
		if errors.Is(err, NoKeys) {
			return it.genCreate()
		}
		it.live.Delete(key)
		return Op{Round: it.round, Key: key, Delete: true}
	default:
		return it.genCreate()
	}
}

func (it *Iterator) genCreate() Op {
	key := it.genKey()
	for it.has(key) {
		key = it.genKey()
	}
	it.live.Set(key)
	return Op{Round: it.round, Key: key, Value: it.genValue()}
}

// sampleKey picks a uniformly random live key, or NoKeys if none is live.
func (it *Iterator) sampleKey() (string, error) {
	n := it.live.Len()
	if n == 0 {
		return "", NoKeys
	}
	key, ok := it.live.GetAt(it.rng.IntN(n))
	if !ok {
		panic("logic error: no key at sampled index")
	}
	return key, nil
}

func (it *Iterator) has(key string) bool {
	_, ok := it.live.Get(key)
	return ok
}

func (it *Iterator) genKey() string {
	if it.params.SequentialKeys {
		it.keyCounter++
		return fmt.Sprintf("%020d", it.keyCounter)
	}
	return string(it.genBytes(it.params.KeyMean, it.params.KeyStdDev))
}

func (it *Iterator) genValue() []byte {
	return it.genBytes(it.params.ValueMean, it.params.ValueStdDev)
}

func (it *Iterator) genBytes(mean, stdDev int) []byte {
	length := int(it.rng.NormFloat64()*float64(stdDev) + float64(mean))
	// mean - stddev goes negative on data sets where outliers skew the
	// stddev past the mean. Clamping at 1 would pile the distribution up
	// at 0, so redraw closer to the mean instead.
	if length < 1 {
		length = int(it.rng.NormFloat64()*float64(mean/3) + float64(mean))
		if length < 1 {
			length = 1
		}
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = byte(it.rng.IntN(256))
	}
	return b
}
