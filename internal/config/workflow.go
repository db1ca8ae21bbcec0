package config

import (
	_ "embed"
	"fmt"
	"os"

	"conveycrm/internal/domain"
	"conveycrm/internal/workflow"

	"gopkg.in/yaml.v3"
)

//go:embed workflow.yaml
var defaultWorkflow []byte

// Workflow is the rule set behind lead aging, outcome follow-ups and quotas.
type Workflow struct {
	DefaultMaxAttempts int                    `yaml:"default_max_attempts"`
	MaxAttemptsOutcome string                 `yaml:"max_attempts_outcome"`
	OverdueHours       map[string]float64     `yaml:"overdue_hours"`
	Quota              workflow.QuotaDefaults `yaml:"quota"`
	Outcomes           []domain.OutcomeCode   `yaml:"outcomes"`

	table *workflow.OutcomeTable
}

// LoadWorkflow parses the rules at path, or the built-in rules when path is empty.
func LoadWorkflow(path string) (*Workflow, error) {
	raw := defaultWorkflow
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read workflow file: %w", err)
		}
		raw = b
	}
	return ParseWorkflow(raw)
}

func ParseWorkflow(raw []byte) (*Workflow, error) {
	var wf Workflow
	if err := yaml.Unmarshal(raw, &wf); err != nil {
		return nil, fmt.Errorf("parse workflow: %w", err)
	}
	if err := wf.validate(); err != nil {
		return nil, fmt.Errorf("invalid workflow: %w", err)
	}
	return &wf, nil
}

func (w *Workflow) validate() error {
	if w.DefaultMaxAttempts <= 0 {
		return fmt.Errorf("default_max_attempts must be > 0")
	}
	for stage, hours := range w.OverdueHours {
		if !workflow.ValidStage(domain.LeadStage(stage)) {
			return fmt.Errorf("overdue_hours: unknown stage %q", stage)
		}
		if hours < 0 {
			return fmt.Errorf("overdue_hours: %s must be >= 0", stage)
		}
	}
	if w.Quota.DailyQuota < 0 || w.Quota.WeeklyQuota < 0 || w.Quota.MonthlyQuota < 0 || w.Quota.MaxConcurrent < 0 {
		return fmt.Errorf("quota values must be >= 0")
	}

	table, err := workflow.NewOutcomeTable(w.Outcomes)
	if err != nil {
		return err
	}
	archive, ok := table.Get(w.MaxAttemptsOutcome)
	if !ok {
		return fmt.Errorf("max_attempts_outcome %q is not a defined outcome", w.MaxAttemptsOutcome)
	}
	if archive.AutoSchedule {
		return fmt.Errorf("max_attempts_outcome %q must not auto-schedule", w.MaxAttemptsOutcome)
	}
	w.table = table
	return nil
}

// Policy returns the overdue thresholds, falling back to defaults for unlisted stages.
func (w *Workflow) Policy() workflow.OverduePolicy {
	p := workflow.DefaultOverduePolicy()
	for stage, hours := range w.OverdueHours {
		p.Thresholds[domain.LeadStage(stage)] = hours
	}
	return p
}

func (w *Workflow) OutcomeTable() *workflow.OutcomeTable {
	return w.table
}
