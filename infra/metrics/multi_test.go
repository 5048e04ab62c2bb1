package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/medrota/rosterd/core/metrics"
)

type countingSink struct {
	records int
	err     error
}

func (c *countingSink) RecordSolve(coremetrics.SolveRecord) error {
	c.records++
	return c.err
}

func TestMultiSinkFanOut(t *testing.T) {
	first := &countingSink{}
	second := &countingSink{}
	sink := NewMultiSink(first, second)

	require.NoError(t, sink.RecordSolve(coremetrics.SolveRecord{Stage: coremetrics.StageDraft}))

	assert.Equal(t, 1, first.records)
	assert.Equal(t, 1, second.records)
}

func TestMultiSinkFirstError(t *testing.T) {
	boom := errors.New("sink down")
	first := &countingSink{err: boom}
	second := &countingSink{}
	sink := NewMultiSink(first, second)

	err := sink.RecordSolve(coremetrics.SolveRecord{})

	require.ErrorIs(t, err, boom)
	assert.Zero(t, second.records, "later sinks must not run after an error")
}
