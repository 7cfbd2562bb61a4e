package application

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"crazy-bakery/backend/internal/features/wizard/domain"
)

// enhancement is a running text enhancement. The pre-enhancement text,
// proposal and candidate are kept so a failed run can put them back.
type enhancement struct {
	id        uint64
	text      string
	proposal  *domain.ImageProposal
	candidate *domain.ImageProposal
	cancel    context.CancelFunc
}

// Enhance rewrites the customization text through the decoration assistant.
// The visible text is cleared and every fragment is appended as it arrives;
// onFragment, when not nil, sees each applied fragment. A user edit of the
// text, or of anything above it, detaches the run: the rest of the stream is
// dropped and the edit stays. A failed or cancelled run restores the text,
// accepted proposal and candidate it started from.
func (w *Wizard) Enhance(ctx context.Context, onFragment func(string)) error {
	w.mu.Lock()
	if err := w.onStepLocked(domain.StepCustomization); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.enh != nil {
		w.mu.Unlock()
		return domain.ErrEnhancementInFlight
	}
	if w.generating {
		w.mu.Unlock()
		return domain.ErrProposalInFlight
	}
	text := w.cfg.Customization
	if strings.TrimSpace(text) == "" {
		w.mu.Unlock()
		return domain.ErrEmptyCustomization
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.enhSeq++
	run := &enhancement{
		id:        w.enhSeq,
		text:      text,
		proposal:  w.cfg.ImageProposal,
		candidate: w.candidate,
		cancel:    cancel,
	}
	w.enh = run
	w.enhanceErr = ""
	cfg := w.cfg
	w.cfg = domain.Reduce(w.cfg, domain.SetCustomization{Text: ""})
	w.candidate = nil
	w.mu.Unlock()
	w.publish()

	started := time.Now()
	stream, err := w.deps.Assistant.EnhanceText(runCtx, cfg, text)
	if err != nil {
		w.deps.Metrics.Leaf("enhance_text", started, err)
		return w.endEnhancement(run, err)
	}
	defer stream.Close()

	for {
		frag, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			w.deps.Metrics.Leaf("enhance_text", started, nil)
			return w.endEnhancement(run, nil)
		}
		if err != nil {
			w.deps.Metrics.Leaf("enhance_text", started, err)
			return w.endEnhancement(run, err)
		}
		if !w.appendFragment(run, frag) {
			w.deps.Metrics.Stale("enhancement")
			return domain.ErrSuperseded
		}
		if onFragment != nil {
			onFragment(frag)
		}
	}
}

func (w *Wizard) appendFragment(run *enhancement, frag string) bool {
	w.mu.Lock()
	if w.enh != run {
		w.mu.Unlock()
		return false
	}
	w.cfg = domain.Reduce(w.cfg, domain.SetCustomization{Text: w.cfg.Customization + frag})
	w.mu.Unlock()
	w.deps.Metrics.Fragment()
	w.publish()
	return true
}

// endEnhancement settles run. A run that was detached meanwhile leaves the
// state alone and reports ErrSuperseded.
func (w *Wizard) endEnhancement(run *enhancement, err error) error {
	w.mu.Lock()
	if w.enh != run {
		w.mu.Unlock()
		return domain.ErrSuperseded
	}
	w.enh = nil
	run.cancel()
	if err != nil {
		w.cfg = domain.Reduce(w.cfg, domain.SetCustomization{Text: run.text})
		if run.proposal != nil {
			w.cfg = domain.Reduce(w.cfg, domain.AcceptProposal{Proposal: run.proposal})
		}
		w.candidate = run.candidate
		if errors.Is(err, context.Canceled) {
			w.enhanceErr = ""
		} else {
			w.enhanceErr = errText(err)
		}
	}
	w.mu.Unlock()
	w.publish()

	if err != nil {
		w.deps.Log.Warn("wizard %s: enhancement failed, text restored: %v", w.id, err)
	}
	return err
}

func (w *Wizard) detachEnhancementLocked() {
	if w.enh == nil {
		return
	}
	w.enh.cancel()
	w.enh = nil
}

// GenerateProposal asks the assistant for an image of the current
// configuration. Any earlier candidate and accepted proposal are discarded
// first. The result becomes the candidate only if the configuration did not
// change while it was generated.
func (w *Wizard) GenerateProposal(ctx context.Context) (*domain.ImageProposal, error) {
	w.mu.Lock()
	if err := w.onStepLocked(domain.StepCustomization); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.generating {
		w.mu.Unlock()
		return nil, domain.ErrProposalInFlight
	}
	if w.enh != nil {
		w.mu.Unlock()
		return nil, domain.ErrEnhancementInFlight
	}
	if strings.TrimSpace(w.cfg.Customization) == "" {
		w.mu.Unlock()
		return nil, domain.ErrEmptyCustomization
	}
	w.candidate = nil
	w.cfg = domain.Reduce(w.cfg, domain.AcceptProposal{})
	w.generating = true
	w.proposalErr = ""
	w.proposalSeq++
	seq := w.proposalSeq
	key := w.cfg.Fingerprint()
	cfg := w.cfg
	w.mu.Unlock()
	w.publish()

	started := time.Now()
	p, err := w.deps.Assistant.GenerateImageProposal(ctx, cfg)
	w.deps.Metrics.Leaf("generate_image", started, err)

	w.mu.Lock()
	if seq == w.proposalSeq {
		w.generating = false
	}
	if seq != w.proposalSeq || w.cfg.Fingerprint() != key {
		w.mu.Unlock()
		w.deps.Metrics.Stale("proposal")
		w.publish()
		return nil, domain.ErrSuperseded
	}
	if err != nil {
		w.proposalErr = errText(err)
	} else {
		w.candidate = p
	}
	w.mu.Unlock()
	w.publish()

	if err != nil {
		w.deps.Log.Warn("wizard %s: image proposal failed: %v", w.id, err)
		return nil, err
	}
	return p, nil
}

// AcceptProposal accepts the current candidate, or withdraws acceptance.
// The candidate itself stays visible either way.
func (w *Wizard) AcceptProposal(accepted bool) error {
	w.mu.Lock()
	if err := w.onStepLocked(domain.StepCustomization); err != nil {
		w.mu.Unlock()
		return err
	}
	if !accepted {
		w.cfg = domain.Reduce(w.cfg, domain.AcceptProposal{})
		w.mu.Unlock()
		w.publish()
		return nil
	}
	if w.candidate == nil {
		w.mu.Unlock()
		return domain.ErrNoCandidate
	}
	w.cfg = domain.Reduce(w.cfg, domain.AcceptProposal{Proposal: w.candidate})
	w.mu.Unlock()
	w.publish()
	return nil
}
