package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPartition struct {
	email  bool
	pn     bool
	err    error
	probes int
}

func (p *countingPartition) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	p.probes++
	return p.email, p.err
}

func (p *countingPartition) ExistsByPersonalNumber(ctx context.Context, pn string) (bool, error) {
	p.probes++
	return p.pn, p.err
}

func TestUniquenessCheckerEmailAcrossPartitions(t *testing.T) {
	admins := &countingPartition{}
	teachers := &countingPartition{email: true}
	students := &countingPartition{}
	checker := NewUniquenessChecker(admins, teachers, students)

	taken, err := checker.EmailTaken(context.Background(), "someone@example.com")
	require.NoError(t, err)
	assert.True(t, taken)
	// Short-circuits after the teacher partition hit.
	assert.Equal(t, 0, students.probes)
}

func TestUniquenessCheckerFreeEverywhere(t *testing.T) {
	checker := NewUniquenessChecker(&countingPartition{}, &countingPartition{}, &countingPartition{})

	taken, err := checker.EmailTaken(context.Background(), "someone@example.com")
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = checker.PersonalNumberTaken(context.Background(), "1234567890")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestUniquenessCheckerPropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	checker := NewUniquenessChecker(&countingPartition{err: boom}, &countingPartition{}, &countingPartition{})

	_, err := checker.EmailTaken(context.Background(), "someone@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	_, err = checker.PersonalNumberTaken(context.Background(), "1234567890")
	require.Error(t, err)
}

func TestUniquenessCheckerPersonalNumberHitInLastPartition(t *testing.T) {
	students := &countingPartition{pn: true}
	checker := NewUniquenessChecker(&countingPartition{}, &countingPartition{}, students)

	taken, err := checker.PersonalNumberTaken(context.Background(), "1234567890")
	require.NoError(t, err)
	assert.True(t, taken)
}
