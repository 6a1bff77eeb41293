package interactive

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/trebuchet-org/zkdeploy/internal/domain/config"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

// ConfirmerAdapter asks yes/no questions on the terminal
type ConfirmerAdapter struct {
	config *config.RuntimeConfig
	run    func(prompt *promptui.Prompt) (string, error)
}

// NewConfirmerAdapter creates a new confirmer adapter
func NewConfirmerAdapter(cfg *config.RuntimeConfig) *ConfirmerAdapter {
	return &ConfirmerAdapter{
		config: cfg,
		run:    func(p *promptui.Prompt) (string, error) { return p.Run() },
	}
}

// Confirm returns true when the operator answers yes.
// In non-interactive mode it never prompts and answers yes.
func (c *ConfirmerAdapter) Confirm(ctx context.Context, prompt string) (bool, error) {
	if c.config.NonInteractive {
		return true, nil
	}

	p := &promptui.Prompt{
		Label:     prompt,
		IsConfirm: true,
	}

	if _, err := c.run(p); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}
	return true, nil
}

// Ensure ConfirmerAdapter implements Confirmer
var _ usecase.Confirmer = (*ConfirmerAdapter)(nil)
