package service

import (
	"context"
	"fmt"
)

// credentialPartition is the slice of a user repository the uniqueness
// checker needs. All three partitions (admins, teachers, students)
// satisfy it.
type credentialPartition interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByPersonalNumber(ctx context.Context, personalNumber string) (bool, error)
}

// UniquenessChecker answers whether an email or personal number is
// already taken anywhere across the three user partitions. It has no
// side effects and compares candidates exactly as submitted; the
// database constraints remain the authoritative guard.
type UniquenessChecker struct {
	partitions []credentialPartition
}

// NewUniquenessChecker wires the checker over the three partitions.
func NewUniquenessChecker(admins, teachers, students credentialPartition) *UniquenessChecker {
	return &UniquenessChecker{partitions: []credentialPartition{admins, teachers, students}}
}

// EmailTaken reports whether any partition holds the email.
func (u *UniquenessChecker) EmailTaken(ctx context.Context, email string) (bool, error) {
	for _, p := range u.partitions {
		taken, err := p.ExistsByEmail(ctx, email)
		if err != nil {
			return false, fmt.Errorf("check email uniqueness: %w", err)
		}
		if taken {
			return true, nil
		}
	}
	return false, nil
}

// PersonalNumberTaken reports whether any partition holds the personal number.
func (u *UniquenessChecker) PersonalNumberTaken(ctx context.Context, personalNumber string) (bool, error) {
	for _, p := range u.partitions {
		taken, err := p.ExistsByPersonalNumber(ctx, personalNumber)
		if err != nil {
			return false, fmt.Errorf("check personal number uniqueness: %w", err)
		}
		if taken {
			return true, nil
		}
	}
	return false, nil
}
