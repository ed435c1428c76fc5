package workload

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/meeshkan/sorteddict"
)

// RunContext carries the settings for one workload run. Metrics are
// optional; nil collectors are skipped.
type RunContext struct {
	context.Context

	Log        zerolog.Logger
	Params     Params
	RoundLimit int64
	// SkipVerify drops the reference cross-checks, leaving a raw replay
	// for timing runs.
	SkipVerify       bool
	MetricOpCount    prometheus.Counter
	MetricMapSize    prometheus.Gauge
	MetricTreeHeight prometheus.Gauge
}

// Run generates the workload and applies it to dict, mirroring every op
// into a plain map. At each round boundary and at the end the dictionary is
// verified against the map: sizes agree, keys walk out strictly ascending
// starting at the minimum, and every value matches.
func (c *RunContext) Run(dict *sorteddict.Map[string, []byte]) error {
	itr, err := c.Params.Iterator()
	if err != nil {
		return err
	}

	reference := map[string][]byte{}
	cnt := 0
	since := time.Now()
	lastRound := int64(0)

	for ; itr.Valid(); itr.Next() {
		op := itr.Op()
		if c.RoundLimit > 0 && op.Round > c.RoundLimit {
			break
		}
		if op.Round != lastRound {
			if lastRound > 0 && !c.SkipVerify {
				if err := c.verify(dict, reference); err != nil {
					return fmt.Errorf("verification failed after round %d: %w", lastRound, err)
				}
			}
			if err := c.Err(); err != nil {
				return err
			}
			lastRound = op.Round
		}

		cnt++
		if cnt%100_000 == 0 {
			c.Log.Info().Msgf("processed %s ops in %s; %s ops/s; round=%d size=%s",
				humanize.Comma(int64(cnt)),
				time.Since(since),
				humanize.Comma(int64(100_000/time.Since(since).Seconds())),
				op.Round,
				humanize.Comma(int64(dict.Len())))
			since = time.Now()
		}
		if c.MetricOpCount != nil {
			c.MetricOpCount.Inc()
		}

		if op.Delete {
			if err := dict.Delete(op.Key); err != nil {
				return fmt.Errorf("delete key %x in round %d: %w", op.Key, op.Round, err)
			}
			delete(reference, op.Key)
		} else {
			dict.Set(op.Key, op.Value)
			reference[op.Key] = op.Value
		}
	}

	if !c.SkipVerify {
		if err := c.verify(dict, reference); err != nil {
			return fmt.Errorf("verification failed after round %d: %w", lastRound, err)
		}
	}

	if c.MetricMapSize != nil {
		c.MetricMapSize.Set(float64(dict.Len()))
	}
	if c.MetricTreeHeight != nil {
		c.MetricTreeHeight.Set(float64(dict.Height()))
	}
	c.Log.Info().Msgf("run complete: %s ops, %s entries, height %d",
		humanize.Comma(int64(cnt)),
		humanize.Comma(int64(dict.Len())),
		dict.Height())
	return nil
}

func (c *RunContext) verify(dict *sorteddict.Map[string, []byte], reference map[string][]byte) error {
	if dict.Len() != len(reference) {
		return fmt.Errorf("size mismatch: dictionary has %d entries, reference has %d",
			dict.Len(), len(reference))
	}
	if dict.Len() == 0 {
		return nil
	}

	min, err := dict.Min()
	if err != nil {
		return err
	}

	var prev string
	first := true
	n := 0
	for key, value := range dict.All() {
		if first && key != min {
			return fmt.Errorf("minimum %x does not match first walked key %x", min, key)
		}
		if !first && key <= prev {
			return fmt.Errorf("keys out of order: %x walked after %x", key, prev)
		}
		want, ok := reference[key]
		if !ok {
			return fmt.Errorf("dictionary holds key %x missing from reference", key)
		}
		if !bytes.Equal(value, want) {
			return fmt.Errorf("value mismatch for key %x", key)
		}
		prev = key
		first = false
		n++
	}
	if n != len(reference) {
		return fmt.Errorf("walk visited %d entries, want %d", n, len(reference))
	}
	return nil
}
