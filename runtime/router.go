package runtime

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"fences-bot/contract"
	"fences-bot/domain"
	"fences-bot/services"
)

// transition advances one session given one inbound event and produces
// the response to render.
type transition func(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response

type tableKey struct {
	state domain.State
	kind  contract.EventKind
}

// bootstrapPrefixes lists structured actions that bypass the access
// gate: a not-yet-member must still be reachable through the admin add
// flow, and the admin engine enforces its own rights check.
var bootstrapPrefixes = []string{"admin", "add_", "rm_", "set_", "bc_"}

// Router is the inbound edge of the engine: it applies the access
// gate, loads the conversation session, and dispatches the event
// through the (state, event kind) transition table.
type Router struct {
	svc            services.IDirectoryService
	sessions       *Registry
	dispatcher     *Dispatcher
	expired        *atomic.Bool
	log            *slog.Logger
	aliasByteLimit int
	table          map[tableKey]transition
}

func NewRouter(svc services.IDirectoryService, sessions *Registry, dispatcher *Dispatcher, expired *atomic.Bool, log *slog.Logger, aliasByteLimit int) *Router {
	r := &Router{
		svc:            svc,
		sessions:       sessions,
		dispatcher:     dispatcher,
		expired:        expired,
		log:            log,
		aliasByteLimit: aliasByteLimit,
		table:          make(map[tableKey]transition),
	}
	r.registerComposeTransitions()
	r.registerAdminTransitions()
	return r
}

func (r *Router) register(state domain.State, kind contract.EventKind, fn transition) {
	r.table[tableKey{state: state, kind: kind}] = fn
}

// HandleEvent processes one inbound event end to end. Events of the
// same conversation arrive strictly one at a time; events of different
// conversations may run concurrently.
func (r *Router) HandleEvent(ctx context.Context, ev contract.Event) contract.Response {
	if !r.allowed(ev) {
		r.log.Warn("[ACCESS DENIED]", "username", ev.Sender, "action", ev.Action, "text", ev.Text)
		return contract.Response{Text: msgAccessDenied}
	}

	r.captureAddress(ev)

	session := r.sessions.Acquire(ev.Sender, ev.Sender)

	if isAdminState(session.State) && !r.svc.IsAdmin(ev.Sender) {
		session.Reset()
		return contract.Response{Text: msgNotAdmin}
	}

	fn, ok := r.table[tableKey{state: session.State, kind: ev.Kind}]
	if !ok {
		r.log.Warn("Unhandled event", "username", ev.Sender, "state", session.State, "kind", ev.Kind)
		session.Reset()
		return r.mainMenu(ev.Sender, msgUnknown+msgMainMenu)
	}
	return fn(ctx, session, ev)
}

// allowed is the access gate: members pass, administrative-bootstrap
// actions pass, everything else is denied.
func (r *Router) allowed(ev contract.Event) bool {
	if ev.Kind == contract.EventAction {
		for _, prefix := range bootstrapPrefixes {
			if strings.HasPrefix(ev.Action, prefix) {
				return true
			}
		}
	}
	return r.svc.IsMember(ev.Sender)
}

// captureAddress records the sender's delivery address the first time
// they interact, so broadcasts can reach them later.
func (r *Router) captureAddress(ev contract.Event) {
	if ev.Address == domain.NoDeliveryAddress {
		return
	}
	member, ok := r.svc.Resolve(ev.Sender)
	if !ok || member.Reachable() {
		return
	}
	if err := r.svc.UpdateDeliveryAddress(ev.Sender, ev.Address); err != nil {
		r.log.Warn("Failed to record delivery address", "username", ev.Sender, "err", err)
	}
}

func isAdminState(state domain.State) bool {
	return strings.HasPrefix(string(state), "admin_")
}

// mainMenu builds the top-level menu, with the admin entry only for
// admins.
func (r *Router) mainMenu(username, text string) contract.Response {
	choices := []contract.Choice{
		{Label: "✏️ Написать", Action: ActionWrite},
		{Label: "👀 Посмотреть", Action: ActionView},
	}
	if r.svc.IsAdmin(username) {
		choices = append(choices, contract.Choice{Label: "🛠 Админка", Action: ActionAdmin})
	}
	return contract.Response{Text: text, Choices: choices}
}

func choicesFromLabels(labels []string, prefix string) []contract.Choice {
	choices := make([]contract.Choice, 0, len(labels)+1)
	for _, label := range labels {
		choices = append(choices, contract.Choice{Label: label, Action: prefix + label})
	}
	return append(choices, backChoice())
}

func backChoice() contract.Choice {
	return contract.Choice{Label: "⬅️ Назад", Action: ActionBack}
}
