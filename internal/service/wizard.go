package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bryan-besnyi/next-doorcard-sub000/internal/model"
)

// ── wizard step machine ──

// Wizard steps. Backward navigation is always allowed; advancing to a step
// requires every earlier step's input to validate.
const (
	StepCampusTerm = 0
	StepBasicInfo  = 1
	StepSchedule   = 2
	StepPublish    = 3
)

var (
	ErrWizardInvalidStep   = errors.New("wizard step must be between 0 and 3")
	ErrWizardCampusTerm    = errors.New("college, term, and year are required")
	ErrWizardBasicInfo     = errors.New("name, doorcard name, and office number are required")
	ErrWizardEmptySchedule = errors.New("at least one time block is required")
	ErrWizardTimeFormat    = errors.New("time blocks must use HH:MM times")
	ErrWizardOverlap       = errors.New("time blocks overlap on the same day")
)

// ValidateStep checks the inputs a draft needs to stand on the target step.
// Step N requires steps 0..N-1 to validate too, so advancing replays them.
func ValidateStep(data *model.DraftData, target int) error {
	if target < StepCampusTerm || target > StepPublish {
		return ErrWizardInvalidStep
	}
	for step := StepCampusTerm; step <= target; step++ {
		var err error
		switch step {
		case StepCampusTerm:
			err = validateCampusTerm(data)
		case StepBasicInfo:
			err = validateBasicInfo(data)
		case StepSchedule, StepPublish:
			err = validateSchedule(data.TimeBlocks)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func validateCampusTerm(data *model.DraftData) error {
	if !model.ValidCollege(data.College) || strings.TrimSpace(data.Term) == "" || strings.TrimSpace(data.Year) == "" {
		return ErrWizardCampusTerm
	}
	return nil
}

func validateBasicInfo(data *model.DraftData) error {
	if strings.TrimSpace(data.Name) == "" ||
		strings.TrimSpace(data.DoorcardName) == "" ||
		strings.TrimSpace(data.OfficeNumber) == "" {
		return ErrWizardBasicInfo
	}
	return nil
}

func validateSchedule(blocks []model.TimeBlock) error {
	if len(blocks) == 0 {
		return ErrWizardEmptySchedule
	}
	for i := range blocks {
		if _, err := parseMinutes(blocks[i].StartTime); err != nil {
			return ErrWizardTimeFormat
		}
		if _, err := parseMinutes(blocks[i].EndTime); err != nil {
			return ErrWizardTimeFormat
		}
	}
	for i := range blocks {
		for j := i + 1; j < len(blocks); j++ {
			if blocksOverlap(&blocks[i], &blocks[j]) {
				return ErrWizardOverlap
			}
		}
	}
	return nil
}

// ── overlap detection ──

// parseMinutes converts "HH:MM" to minutes since midnight.
func parseMinutes(hhmm string) (int, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed time %q", hhmm)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("malformed time %q", hhmm)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("malformed time %q", hhmm)
	}
	return h*60 + m, nil
}

// blocksOverlap reports whether two blocks on the same day intersect.
// Intervals are half-open: touching endpoints (a.end == b.start) do not
// overlap. Symmetric in its arguments.
func blocksOverlap(a, b *model.TimeBlock) bool {
	if a.DayOfWeek != b.DayOfWeek {
		return false
	}
	aStart, err := parseMinutes(a.StartTime)
	if err != nil {
		return false
	}
	aEnd, err := parseMinutes(a.EndTime)
	if err != nil {
		return false
	}
	bStart, err := parseMinutes(b.StartTime)
	if err != nil {
		return false
	}
	bEnd, err := parseMinutes(b.EndTime)
	if err != nil {
		return false
	}
	return aStart < bEnd && bStart < aEnd
}

// ── completion scoring ──

// CalculateCompletion scores a draft for the "resume draft" progress bar.
//
// Buckets: basic-info fields (8 points each, 5 fields), time blocks (40
// points scaled by min(count,5)/5, plus 5 bonus when every present block has
// day, start, end, and activity filled), and review engagement (10 points
// each for preview and print). Score = round(100 * earned / 105).
func CalculateCompletion(data *model.DraftData) int {
	const totalPoints = 105.0
	earned := 0.0

	for _, field := range []string{data.Name, data.DoorcardName, data.OfficeNumber, data.Term, data.College} {
		if strings.TrimSpace(field) != "" {
			earned += 8
		}
	}

	count := len(data.TimeBlocks)
	if count > 0 {
		capped := count
		if capped > 5 {
			capped = 5
		}
		earned += 40 * float64(capped) / 5

		allComplete := true
		for i := range data.TimeBlocks {
			b := &data.TimeBlocks[i]
			if b.DayOfWeek == "" || b.StartTime == "" || b.EndTime == "" || b.Activity == "" {
				allComplete = false
				break
			}
		}
		if allComplete {
			earned += 5
		}
	}

	if data.HasViewedPreview {
		earned += 10
	}
	if data.HasViewedPrint {
		earned += 10
	}

	score := int(100*earned/totalPoints + 0.5)
	if score > 100 {
		score = 100
	}
	return score
}
