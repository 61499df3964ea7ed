package webhook

import (
	"fmt"

	"github.com/mattjoyce/switchboard/internal/config"
	"github.com/mattjoyce/switchboard/internal/twiml"
)

// CompilePlan builds a Response document from plan steps. Builder errors
// (*twiml.NestingError, *twiml.EnumError) are returned with the step index.
func CompilePlan(steps []config.PlanStep) (*twiml.Element, error) {
	root := twiml.NewResponse(twiml.ResponseOptions{})
	if err := appendSteps(root, steps); err != nil {
		return nil, err
	}
	return root, nil
}

func appendSteps(parent *twiml.Element, steps []config.PlanStep) error {
	for i, step := range steps {
		child, err := compileStep(step)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if _, err := parent.Append(child); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func compileStep(s config.PlanStep) (*twiml.Element, error) {
	switch {
	case s.Say != "":
		return twiml.NewSay(s.Say, twiml.SayOptions{Voice: s.Voice, Language: s.Language, Loop: s.Loop})
	case s.Play != "":
		return twiml.NewPlay(s.Play, twiml.PlayOptions{Loop: s.Loop}), nil
	case s.Pause != nil:
		return twiml.NewPause(twiml.PauseOptions{Length: s.Pause}), nil
	case s.Redirect != "":
		return twiml.NewRedirect(s.Redirect, twiml.RedirectOptions{Method: s.Method})
	case s.Hangup:
		return twiml.NewHangup(), nil
	case s.Gather != nil:
		return compileGather(s.Gather)
	case s.Dial != nil:
		return compileDial(s.Dial)
	case s.Record != nil:
		r := s.Record
		return twiml.NewRecord(twiml.RecordOptions{
			Action:    r.Action,
			Method:    r.Method,
			MaxLength: r.MaxLength,
			Timeout:   r.Timeout,
		})
	case s.Sms != nil:
		m := s.Sms
		return twiml.NewSms(m.Body, twiml.SmsOptions{To: m.To, From: m.From, StatusCallback: m.StatusCallback})
	default:
		return nil, fmt.Errorf("step has no verb")
	}
}

func compileGather(g *config.GatherStep) (*twiml.Element, error) {
	gather, err := twiml.NewGather(twiml.GatherOptions{
		Action:      g.Action,
		Method:      g.Method,
		NumDigits:   g.NumDigits,
		Timeout:     g.Timeout,
		FinishOnKey: g.FinishOnKey,
	})
	if err != nil {
		return nil, err
	}
	if err := appendSteps(gather, g.Steps); err != nil {
		return nil, fmt.Errorf("gather: %w", err)
	}
	return gather, nil
}

func compileDial(d *config.DialStep) (*twiml.Element, error) {
	dial, err := twiml.NewDial("", twiml.DialOptions{Action: d.Action, Method: d.Method})
	if err != nil {
		return nil, err
	}
	for _, n := range d.Numbers {
		if _, err := dial.Number(n, twiml.NumberOptions{}); err != nil {
			return nil, err
		}
	}
	if d.Conference != "" {
		if _, err := dial.Conference(d.Conference, twiml.ConferenceOptions{Muted: d.Muted, Beep: d.Beep}); err != nil {
			return nil, err
		}
	}
	if len(dial.Children()) == 0 {
		return nil, fmt.Errorf("dial needs numbers or a conference")
	}
	return dial, nil
}
