// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import (
	"context"
	"errors"
	"fmt"
)

// Lookback is how many ticks before the current one [Check] verifies
// flags for.
const Lookback = 5

// Checker is implemented by each service's checker script. Every
// method returns the result of its step; a non-nil error means the
// step could not reach a verdict.
type Checker interface {
	// PlaceFlag stores the flag of tick in the service.
	PlaceFlag(ctx context.Context, session *Session, tick int) (Result, error)

	// CheckService verifies the service's general functionality.
	CheckService(ctx context.Context, session *Session) (Result, error)

	// CheckFlag verifies the flag of tick can still be retrieved.
	CheckFlag(ctx context.Context, session *Session, tick int) (Result, error)
}

// Check runs the check steps for session.Target and returns the
// overall result:
//
//   - a non-OK result from PlaceFlag or CheckService is final;
//   - flags are checked from the current tick back to
//     max(0, tick-Lookback); a non-OK result for the current tick is
//     final, as is any result other than FLAG_NOT_FOUND for an older
//     tick;
//   - FLAG_NOT_FOUND for an older tick alone yields RECOVERING, since
//     the service evidently lost data at some point but works now.
//
// Any step error stops the sequence and is returned with
// [ResultInvalid].
func Check(ctx context.Context, checker Checker, session *Session) (Result, error) {
	logger := session.Log()
	tick := session.Target.Tick

	if err := ctx.Err(); err != nil {
		return ResultInvalid, err
	}
	logger.Info("placing flag", "tick", tick)
	result, err := checker.PlaceFlag(ctx, session, tick)
	if err != nil {
		return ResultInvalid, fmt.Errorf("placing flag: %w", err)
	}
	logger.Info("flag placement result", "result", result)
	if result != ResultOK {
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return ResultInvalid, err
	}
	logger.Info("checking service")
	result, err = checker.CheckService(ctx, session)
	if err != nil {
		return ResultInvalid, fmt.Errorf("checking service: %w", err)
	}
	logger.Info("service check result", "result", result)
	if result != ResultOK {
		return result, nil
	}

	oldest := max(tick-Lookback, 0)
	recovering := false
	for current := tick; current >= oldest; current-- {
		if err := ctx.Err(); err != nil {
			return ResultInvalid, err
		}
		logger.Info("checking flag", "tick", current)
		result, err = checker.CheckFlag(ctx, session, current)
		if err != nil {
			return ResultInvalid, fmt.Errorf("checking flag of tick %d: %w", current, err)
		}
		logger.Info("flag check result", "tick", current, "result", result)
		if result == ResultOK {
			continue
		}
		if current != tick && result == ResultFlagNotFound {
			recovering = true
			continue
		}
		return result, nil
	}

	if recovering {
		return ResultRecovering, nil
	}
	return ResultOK, nil
}

// Run runs [Check] and submits the outcome through session.Control.
// A step failing with a connection error (see [IsConnError]) is
// submitted as DOWN; any other step error is returned and nothing is
// submitted. Nothing is submitted either once ctx is done, whatever
// the step error.
func Run(ctx context.Context, checker Checker, session *Session) (Result, error) {
	result, err := Check(ctx, checker, session)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if !errors.Is(err, ctxErr) {
				err = fmt.Errorf("%w: %w", ctxErr, err)
			}
			return ResultInvalid, err
		}
		if !IsConnError(err) {
			return ResultInvalid, err
		}
		session.Log().Warn("connection error during check", "error", err)
		result = ResultDown
	}

	if err := session.Control.SubmitResult(result); err != nil {
		return result, fmt.Errorf("submitting result: %w", err)
	}
	session.Log().Debug("result submitted", "result", result)
	return result, nil
}
