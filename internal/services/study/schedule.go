package study

import (
	"context"

	"github.com/google/uuid"

	"halomind/internal/adapters/ai"
	domain "halomind/internal/domain/study"
)

type scheduleEntryPayload struct {
	SectionTitle string `json:"sectionTitle"`
	Date         string `json:"date"`
}

type schedulePayload struct {
	Schedule []scheduleEntryPayload `json:"schedule"`
}

// GenerateStudySchedule plans sections across days starting today. Entries
// whose date is not a valid YYYY-MM-DD day are dropped. A nil schedule
// means the response could not be interpreted.
func (s *Service) GenerateStudySchedule(ctx context.Context, goal string, sectionTitles []string) (*domain.StudySchedule, error) {
	if err := ValidateStruct(ScheduleInput{Goal: goal, SectionTitles: sectionTitles}); err != nil {
		return nil, err
	}

	today := s.now().Format(domain.DateLayout)
	cfg := jsonConfig(scheduleResponseSchema)
	cfg.SystemInstruction = scheduleSystemInstruction(today)

	req, err := ai.TextRequest(ai.OpSchedule, s.gen.Model(ctx), schedulePrompt(goal, sectionTitles), cfg)
	if err != nil {
		return nil, err
	}

	resp, err := s.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	payload := decode[schedulePayload](s, ai.OpSchedule, scheduleDocumentSchema, resp)
	if payload == nil {
		return nil, nil
	}

	schedule := &domain.StudySchedule{Entries: make([]domain.ScheduleEntry, 0, len(payload.Schedule))}
	for _, e := range payload.Schedule {
		if !domain.ValidDate(e.Date) {
			s.log.Debugw("dropping schedule entry with invalid date", "section", e.SectionTitle, "date", e.Date)
			continue
		}
		schedule.Entries = append(schedule.Entries, domain.ScheduleEntry{ID: uuid.New(), SectionTitle: e.SectionTitle, Date: e.Date})
	}
	return schedule, nil
}
