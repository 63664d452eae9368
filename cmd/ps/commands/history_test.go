package commands

import (
	"testing"
	"time"

	"github.com/fivetwenty-io/powerschool/internal/constants"
	"github.com/fivetwenty-io/powerschool/pkg/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryFlags_Expressions(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.September, 3, 0, 0, 0, 0, time.UTC)

	t.Run("year id selector", func(t *testing.T) {
		t.Parallel()

		expressions, err := (&historyFlags{yearID: 34}).expressions("yearid", now)
		require.NoError(t, err)
		require.Len(t, expressions, 25)
		assert.Equal(t, "yearid=ge=34;yearid=lt=35", expressions[0])
		assert.Equal(t, "yearid=ge=10;yearid=lt=11", expressions[24])
	})

	t.Run("selector taken from a filter", func(t *testing.T) {
		t.Parallel()

		expressions, err := (&historyFlags{yearID: 24}).expressions("termid=ge=2400;yearid==24", now)
		require.NoError(t, err)
		require.Len(t, expressions, 49)
		assert.Equal(t, "termid=ge=2400;termid=lt=2500", expressions[0])
	})

	t.Run("year id defaults to the current school year", func(t *testing.T) {
		t.Parallel()

		expressions, err := (&historyFlags{}).expressions("yearid", now)
		require.NoError(t, err)
		assert.Equal(t, "yearid=ge=34;yearid=lt=35", expressions[0])
		assert.Equal(t, 34, history.YearIDFor(now))
	})

	t.Run("generic selector needs a start value", func(t *testing.T) {
		t.Parallel()

		_, err := (&historyFlags{yearID: 34}).expressions("dcid", now)
		require.ErrorIs(t, err, history.ErrStartRequired)
	})

	t.Run("generic selector with a start value", func(t *testing.T) {
		t.Parallel()

		expressions, err := (&historyFlags{yearID: 34, start: "25000"}).expressions("dcid", now)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"dcid=ge=25000;dcid=lt=35000",
			"dcid=ge=15000;dcid=lt=25000",
			"dcid=ge=5000;dcid=lt=15000",
		}, expressions)
	})

	t.Run("invalid start value", func(t *testing.T) {
		t.Parallel()

		_, err := (&historyFlags{yearID: 34, start: "soon"}).expressions("dcid", now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --start")
	})

	t.Run("start value at the integer limit", func(t *testing.T) {
		t.Parallel()

		_, err := (&historyFlags{yearID: 34, start: "9223372036854775807"}).expressions("dcid", now)
		require.ErrorIs(t, err, history.ErrOutOfRange)
	})

	t.Run("negative year id", func(t *testing.T) {
		t.Parallel()

		_, err := (&historyFlags{yearID: -1}).expressions("yearid", now)
		require.ErrorIs(t, err, constants.ErrYearIDRequired)
	})

	t.Run("invalid selector", func(t *testing.T) {
		t.Parallel()

		_, err := (&historyFlags{yearID: 34}).expressions(";", now)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid selector")
	})
}
