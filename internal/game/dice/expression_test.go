package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

func TestParse_ValidExpressions(t *testing.T) {
	cases := []struct {
		in   string
		want dice.Expression
	}{
		{"d20", dice.Expression{Raw: "d20", Count: 1, Sides: 20}},
		{"1d2", dice.Expression{Raw: "1d2", Count: 1, Sides: 2}},
		{"2d6+3", dice.Expression{Raw: "2d6+3", Count: 2, Sides: 6, Modifier: 3}},
		{"4d8-2", dice.Expression{Raw: "4d8-2", Count: 4, Sides: 8, Modifier: -2}},
		{"4d6kh3", dice.Expression{Raw: "4d6kh3", Count: 4, Sides: 6, KeepHighest: 3}},
		{"3D6KH2+1", dice.Expression{Raw: "3D6KH2+1", Count: 3, Sides: 6, KeepHighest: 2, Modifier: 1}},
		{" 2d4 + 1 ", dice.Expression{Raw: " 2d4 + 1 ", Count: 2, Sides: 4, Modifier: 1}},
	}
	for _, tc := range cases {
		got, err := dice.Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParse_RejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "6", "d", "d1", "0d6", "2d6kh2", "1d6kh1", "2d6+", "2d6*2", "xd6"} {
		_, err := dice.Parse(in)
		assert.Error(t, err, "%q", in)
	}
}

func TestMustParse_PanicsOnError(t *testing.T) {
	assert.Panics(t, func() { dice.MustParse("bogus") })
	assert.NotPanics(t, func() { dice.MustParse("1d6") })
}

func TestRoll_KeepHighestDropsLowest(t *testing.T) {
	// Faces: floor(v·6)+1 → 1, 4, 6, 2.
	src := dice.NewSequence(0.0, 0.5, 0.99, 0.2)
	res := dice.Roll(dice.MustParse("4d6kh3"), src)

	assert.Equal(t, []int{6, 4, 2}, res.Dice)
	assert.Equal(t, 12, res.Total())
	assert.Equal(t, "4d6kh3: [6 4 2] +0 = 12", res.String())
}

func TestRollExpr_AppliesModifier(t *testing.T) {
	res, err := dice.RollExpr("2d6-1", dice.NewSequence(0.0, 0.99))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 6}, res.Dice)
	assert.Equal(t, 6, res.Total())

	_, err = dice.RollExpr("2x6", dice.NewSequence())
	assert.Error(t, err)
}

func TestRoll_TotalWithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 8).Draw(rt, "count")
		e := dice.Expression{
			Raw:      "prop",
			Count:    count,
			Sides:    rapid.IntRange(2, 100).Draw(rt, "sides"),
			Modifier: rapid.IntRange(-10, 10).Draw(rt, "modifier"),
		}
		if count > 1 {
			e.KeepHighest = rapid.IntRange(0, count-1).Draw(rt, "keep")
		}
		res := dice.Roll(e, dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed")))
		total := res.Total()
		if total < e.Min() || total > e.Max() {
			rt.Fatalf("total %d outside [%d, %d]", total, e.Min(), e.Max())
		}
	})
}

func TestRoller_ExprLogsTotal(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := dice.NewLoggedRoller(dice.NewSequence(0.5), zap.New(core))

	res, err := r.Expr("script", "1d2+1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total())

	entries := logs.FilterMessage("expression roll").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "script", entries[0].ContextMap()["roll_for"])
	assert.EqualValues(t, 3, entries[0].ContextMap()["total"])

	_, err = r.Expr("script", "nope")
	assert.Error(t, err)
}
