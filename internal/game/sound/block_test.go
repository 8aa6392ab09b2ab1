package sound_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/cardstack/internal/game/sound"
)

type call struct {
	op     string
	id     uint16
	volume uint16
}

type recorder struct {
	calls []call
}

func (r *recorder) PlayBackground(id, volume uint16) {
	r.calls = append(r.calls, call{op: "play", id: id, volume: volume})
}

func (r *recorder) ChangeBackgroundVolume(volume uint16) {
	r.calls = append(r.calls, call{op: "volume", volume: volume})
}

func (r *recorder) StopBackground() {
	r.calls = append(r.calls, call{op: "stop"})
}

type vars map[uint16]uint16

func (v vars) Var(idx uint16) uint16 { return v[idx] }

func TestDecode_SimpleForms(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want sound.Block
	}{
		{"play", []byte{0x10, 0x00, 0x40, 0x00}, sound.Block{Sound: 16, Volume: 64}},
		{"continue", []byte{0xFF, 0xFF}, sound.Block{Sound: sound.ActionContinue}},
		{"volume", []byte{0xFE, 0xFF, 0x20, 0x00}, sound.Block{Sound: sound.ActionChangeVolume, Volume: 32}},
		{"stop", []byte{0xFD, 0xFF}, sound.Block{Sound: sound.ActionStop}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := sound.Decode(bytes.NewReader(tc.in))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecode_Conditional(t *testing.T) {
	in := []byte{
		0xFC, 0xFF, // conditional
		0x05, 0x00, // var 5
		0x03, 0x00, // 3 items
		0x07, 0x00, 0x10, 0x00, // play 7 @16
		0xFF, 0xFF, // continue
		0xFE, 0xFF, 0x08, 0x00, // volume 8
	}
	got, err := sound.Decode(bytes.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, uint16(5), got.Var)
	assert.Equal(t, []sound.Item{
		{Action: 7, Volume: 16},
		{Action: sound.ActionContinue},
		{Action: sound.ActionChangeVolume, Volume: 8},
	}, got.Items)
}

func TestDecode_UnknownActionIsFatal(t *testing.T) {
	for _, code := range [][]byte{{0x00, 0x00}, {0xFB, 0xFF}, {0x00, 0x80}} {
		_, err := sound.Decode(bytes.NewReader(code))
		require.Error(t, err)
		assert.True(t, errors.Is(err, sound.ErrUnknownAction))
	}
}

func TestDecode_Truncated(t *testing.T) {
	_, err := sound.Decode(bytes.NewReader([]byte{0x10, 0x00}))
	require.Error(t, err)
	assert.False(t, errors.Is(err, sound.ErrUnknownAction))
}

func TestDecodeWords(t *testing.T) {
	b, err := sound.DecodeWords([]uint16{uint16(0xFFFE), 12})
	require.NoError(t, err)
	assert.Equal(t, sound.Block{Sound: sound.ActionChangeVolume, Volume: 12}, b)
}

func TestApply_DirectActions(t *testing.T) {
	logger := zap.NewNop()
	rec := &recorder{}
	require.NoError(t, sound.Apply(sound.Block{Sound: 42, Volume: 100}, vars{}, rec, logger))
	require.NoError(t, sound.Apply(sound.Block{Sound: sound.ActionChangeVolume, Volume: 3}, vars{}, rec, logger))
	require.NoError(t, sound.Apply(sound.Block{Sound: sound.ActionStop}, vars{}, rec, logger))
	require.NoError(t, sound.Apply(sound.Block{Sound: sound.ActionContinue}, vars{}, rec, logger))
	assert.Equal(t, []call{
		{op: "play", id: 42, volume: 100},
		{op: "volume", volume: 3},
		{op: "stop"},
	}, rec.calls)
}

func TestApply_UnknownResolvedActionIsFatal(t *testing.T) {
	rec := &recorder{}
	b := sound.Block{Sound: sound.ActionConditional, Var: 1, Items: []sound.Item{{Action: -9}}}
	err := sound.Apply(b, vars{1: 0}, rec, zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, sound.ErrUnknownAction))
	assert.Empty(t, rec.calls)
}

func TestApply_OutOfRangeSelectorWarnsAndDoesNothing(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	rec := &recorder{}
	b := sound.Block{Sound: sound.ActionConditional, Var: 2, Items: []sound.Item{{Action: 5, Volume: 1}}}
	require.NoError(t, sound.Apply(b, vars{2: 9}, rec, zap.New(core)))
	assert.Empty(t, rec.calls)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func genItem(t *rapid.T, label string) sound.Item {
	kind := rapid.IntRange(0, 3).Draw(t, label+"_kind")
	switch kind {
	case 0:
		return sound.Item{Action: int16(rapid.IntRange(1, 32767).Draw(t, label+"_id")), Volume: rapid.Uint16().Draw(t, label+"_vol")}
	case 1:
		return sound.Item{Action: sound.ActionChangeVolume, Volume: rapid.Uint16().Draw(t, label+"_vol")}
	case 2:
		return sound.Item{Action: sound.ActionStop}
	default:
		return sound.Item{Action: sound.ActionContinue}
	}
}

func TestProperty_ConditionalAppliesSelectedPair(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(t, "n")
		items := make([]sound.Item, n)
		for i := range items {
			items[i] = genItem(t, "item")
		}
		selector := rapid.Uint16Range(0, 200).Draw(t, "var")
		in := sound.Block{Sound: sound.ActionConditional, Var: selector, Items: items}

		decoded, err := sound.Decode(bytes.NewReader(sound.Encode(in)))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(decoded.Items) != n || decoded.Var != selector {
			t.Fatalf("decoded %+v, want %+v", decoded, in)
		}

		k := rapid.IntRange(0, n+3).Draw(t, "k")
		core, logs := observer.New(zap.WarnLevel)
		rec := &recorder{}
		if err := sound.Apply(decoded, vars{selector: uint16(k)}, rec, zap.New(core)); err != nil {
			t.Fatalf("apply: %v", err)
		}

		if k >= n {
			if len(rec.calls) != 0 || logs.Len() != 1 {
				t.Fatalf("out of range selector: calls=%v warnings=%d", rec.calls, logs.Len())
			}
			return
		}
		want := items[k]
		switch {
		case want.Action > 0:
			if len(rec.calls) != 1 || rec.calls[0] != (call{op: "play", id: uint16(want.Action), volume: want.Volume}) {
				t.Fatalf("pair %d: got %v, want play %+v", k, rec.calls, want)
			}
		case want.Action == sound.ActionChangeVolume:
			if len(rec.calls) != 1 || rec.calls[0] != (call{op: "volume", volume: want.Volume}) {
				t.Fatalf("pair %d: got %v, want volume %d", k, rec.calls, want.Volume)
			}
		case want.Action == sound.ActionStop:
			if len(rec.calls) != 1 || rec.calls[0].op != "stop" {
				t.Fatalf("pair %d: got %v, want stop", k, rec.calls)
			}
		default:
			if len(rec.calls) != 0 {
				t.Fatalf("pair %d: continue made calls %v", k, rec.calls)
			}
		}
	})
}
