package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyellow/interview-linebot-go/internal/availability"
	"github.com/garyellow/interview-linebot-go/internal/card"
	domerrors "github.com/garyellow/interview-linebot-go/internal/errors"
	"github.com/garyellow/interview-linebot-go/internal/logger"
	"github.com/garyellow/interview-linebot-go/internal/slot"
	"golang.org/x/text/unicode/norm"
)

// DefaultCandidateName is used in update replies when none is configured.
const DefaultCandidateName = "Aman"

// Metric labels for events that carry no action.
const (
	labelConversationUpdate = "conversation_update"
	labelFreeText           = "free_text"
)

// CardChecker reports whether a card asset is present.
type CardChecker interface {
	Exists(name card.Name) error
}

// Recorder counts dispatch outcomes.
type Recorder interface {
	RecordDispatch(action, outcome string)
}

// DispatcherConfig holds the dependencies of a Dispatcher.
type DispatcherConfig struct {
	Store         availability.Store
	Cards         CardChecker
	Key           string // availability record key; defaults to availability.DefaultKey
	CandidateName string
	Logger        *logger.Logger
	Metrics       Recorder // optional
}

// Dispatcher maps one Event to one Reply. It keeps no per-event state and
// is safe for concurrent use.
type Dispatcher struct {
	store         availability.Store
	cards         CardChecker
	key           string
	candidateName string
	logger        *logger.Logger
	metrics       Recorder
}

// NewDispatcher validates cfg and creates a Dispatcher.
func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.Store == nil {
		return nil, errors.New("bot: store is required")
	}
	if cfg.Cards == nil {
		return nil, errors.New("bot: card checker is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("bot: logger is required")
	}

	key := cfg.Key
	if key == "" {
		key = availability.DefaultKey
	}
	if err := availability.ValidateKey(key); err != nil {
		return nil, fmt.Errorf("bot: %w", err)
	}

	name := cfg.CandidateName
	if name == "" {
		name = DefaultCandidateName
	}

	return &Dispatcher{
		store:         cfg.Store,
		cards:         cfg.Cards,
		key:           key,
		candidateName: name,
		logger:        cfg.Logger.WithModule("bot"),
		metrics:       cfg.Metrics,
	}, nil
}

// Dispatch returns the reply for ev. It returns ErrNoReply when the event
// needs no answer; any other error is an internal fault.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (Reply, error) {
	label, reply, err := d.route(ctx, ev)
	d.record(label, reply, err)
	return reply, err
}

func (d *Dispatcher) route(ctx context.Context, ev Event) (string, Reply, error) {
	switch ev.Type {
	case EventConversationUpdate:
		if ev.MembersAdded <= 0 {
			return labelConversationUpdate, Reply{}, domerrors.ErrNoReply
		}
		reply, err := d.cardReply(card.HiringMessage)
		return labelConversationUpdate, reply, err

	case EventMessage:
		if tag, ok := ev.Form.Action(); ok {
			action := ParseAction(tag)
			reply, err := d.handleAction(ctx, action, ev)
			return action.String(), reply, err
		}
		reply, err := d.handleText(ctx, ev.Text)
		return labelFreeText, reply, err

	default:
		return ev.Type.String(), Reply{}, domerrors.ErrNoReply
	}
}

func (d *Dispatcher) handleAction(ctx context.Context, action Action, ev Event) (Reply, error) {
	switch action {
	case ActionViewRequirements:
		return d.cardReply(card.Requirement)
	case ActionSlotSuggestion:
		return d.cardReply(card.SlotSuggestion)
	case ActionProvideAvailability:
		return d.cardReply(card.ProvideAvailability)
	case ActionDecline:
		return TextReply(MsgDecline), nil
	case ActionConfirm:
		return d.confirm(ctx, ev.Form)
	case ActionUnknown:
		d.logger.DebugContext(ctx, "Unknown form action, treating as text",
			"action", ev.Form.Get(FormAction))
		return d.handleText(ctx, ev.Text)
	}
	return d.handleText(ctx, ev.Text)
}

// confirm formats the submitted slots, replaces the stored record and
// echoes the lines back.
func (d *Dispatcher) confirm(ctx context.Context, form Form) (Reply, error) {
	slots := slot.Parse(form.Get(FormSelectedSlot), form.Get(FormManualDate), form.Get(FormManualTime))
	if len(slots) == 0 {
		return TextReply(MsgSelectSlot), nil
	}

	lines := slot.FormatAll(slots)
	if err := d.store.Save(ctx, d.key, lines); err != nil {
		return Reply{}, domerrors.NewWrapper("bot", "confirm").
			Wrap(fmt.Errorf("%w: %w", domerrors.ErrStoreUnavailable, err), "availability could not be saved")
	}

	d.logger.InfoContext(ctx, "Availability recorded", "key", d.key, "slots", len(lines))
	return TextReply(confirmMessage(lines)), nil
}

func (d *Dispatcher) handleText(ctx context.Context, text string) (Reply, error) {
	text = norm.NFC.String(text)
	if !hasUpdateKeyword(text) {
		return TextReply(MsgInvalidInput), nil
	}

	lines, err := d.store.Load(ctx, d.key)
	if err != nil {
		return Reply{}, domerrors.NewWrapper("bot", "update").
			Wrap(fmt.Errorf("%w: %w", domerrors.ErrStoreUnavailable, err), "availability could not be read")
	}
	if len(lines) == 0 {
		return TextReply(MsgNoUpdate), nil
	}
	return TextReply(d.updateMessage(lines)), nil
}

func (d *Dispatcher) updateMessage(lines []string) string {
	return fmt.Sprintf(msgUpdateHeaderFormat, d.candidateName) + joinLines(lines)
}

func (d *Dispatcher) cardReply(name card.Name) (Reply, error) {
	if err := d.cards.Exists(name); err != nil {
		return Reply{}, domerrors.NewWrapper("bot", "card").Wrapf(err, "card %s unavailable", name)
	}
	return CardReply(name), nil
}

func (d *Dispatcher) record(label string, reply Reply, err error) {
	if d.metrics == nil {
		return
	}
	outcome := "error"
	switch {
	case errors.Is(err, domerrors.ErrNoReply):
		outcome = "no_reply"
	case err != nil:
	case reply.Kind == ReplyCard:
		outcome = "card"
	default:
		outcome = "text"
	}
	d.metrics.RecordDispatch(label, outcome)
}
