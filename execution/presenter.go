package execution

import "github.com/hairizuan-noorazman/scriptvault/script"

// Preview is the summary shown before a script runs.
type Preview struct {
	Name        string
	Version     string
	Language    script.Language
	Tags        []string
	Description string
	Directory   string
	UseCount    uint64
	SuccessRate float64
}

// NewPreview summarizes s. SuccessRate is 0 until the script has run.
func NewPreview(s *script.Script) Preview {
	p := Preview{
		Name:        s.Name,
		Version:     s.Version,
		Language:    s.Language,
		Tags:        s.Tags,
		Description: s.Description,
		Directory:   s.Context.Directory,
		UseCount:    s.Metadata.UseCount,
	}
	if s.Metadata.UseCount > 0 {
		p.SuccessRate = s.SuccessRate()
	}
	return p
}

// Presenter renders the user-facing events of a run. The engine never prints by itself.
type Presenter interface {
	// Warn is called when the script contains dangerous patterns.
	Warn(s *script.Script, patterns []string)

	// Preview is called once the safety check passed.
	Preview(p Preview)

	// Output replays the captured streams after the process exits.
	Output(stdout, stderr string)

	// Result is called once with the final outcome of the run.
	Result(o *Outcome)
}

// NopPresenter discards every event.
type NopPresenter struct{}

func (NopPresenter) Warn(*script.Script, []string) {}
func (NopPresenter) Preview(Preview)               {}
func (NopPresenter) Output(string, string)         {}
func (NopPresenter) Result(*Outcome)               {}
