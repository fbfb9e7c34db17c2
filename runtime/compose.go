package runtime

import (
	"context"
	"errors"
	"strings"

	"fences-bot/contract"
	"fences-bot/domain"
	apperrors "fences-bot/errors"
)

// registerComposeTransitions wires the write flow:
// Idle -> ChoosingRecipient -> EnteringAlias -> TypingMessage -> Idle.
func (r *Router) registerComposeTransitions() {
	r.register(domain.StateIdle, contract.EventAction, r.idleAction)
	r.register(domain.StateIdle, contract.EventText, r.idleText)
	r.register(domain.StateIdle, contract.EventAttachment, r.idleText)

	r.register(domain.StateChoosingRecipient, contract.EventAction, r.chooseRecipient)
	r.register(domain.StateChoosingRecipient, contract.EventText, r.repromptRecipients)
	r.register(domain.StateChoosingRecipient, contract.EventAttachment, r.repromptRecipients)

	r.register(domain.StateEnteringAlias, contract.EventText, r.enterAliasText)
	r.register(domain.StateEnteringAlias, contract.EventAction, r.enterAliasAction)
	r.register(domain.StateEnteringAlias, contract.EventAttachment, r.rejectNonText(msgWriteAlias))

	r.register(domain.StateTypingMessage, contract.EventText, r.collectChunk)
	r.register(domain.StateTypingMessage, contract.EventAction, r.typingAction)
	r.register(domain.StateTypingMessage, contract.EventAttachment, r.rejectNonText(msgEnterMessage))
}

func (r *Router) idleAction(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	switch {
	case ev.Action == ActionWrite:
		return r.enterComposeFlow(session)
	case ev.Action == ActionView:
		return r.viewBoard(session)
	case strings.HasPrefix(ev.Action, PrefixView):
		return r.viewEntry(session, strings.TrimPrefix(ev.Action, PrefixView))
	case ev.Action == ActionAdmin:
		return r.enterAdminFlow(session)
	case ev.Action == ActionBack:
		return r.mainMenu(session.Username, msgMainMenu)
	default:
		return r.mainMenu(session.Username, msgUnknown+msgMainMenu)
	}
}

func (r *Router) idleText(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	r.log.Warn("Unknown message", "username", ev.Sender, "text", ev.Text)
	return r.mainMenu(session.Username, msgUnknown+msgMainMenu)
}

// enterComposeFlow is the compose entry guard: once the expiration
// monitor has flipped the shared flag, new write sessions are refused.
// Viewing and admin actions stay available.
func (r *Router) enterComposeFlow(session *domain.Session) contract.Response {
	if r.expired.Load() {
		session.Reset()
		return r.mainMenu(session.Username, msgExpired)
	}
	session.State = domain.StateChoosingRecipient
	return r.recipientList()
}

func (r *Router) recipientList() contract.Response {
	return contract.Response{
		Text:    msgSelectRecipient,
		Choices: choicesFromLabels(r.svc.Labels(domain.RoleAll), ""),
	}
}

func (r *Router) chooseRecipient(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	if ev.Action == ActionBack {
		session.Reset()
		return r.mainMenu(session.Username, msgMainMenu)
	}
	if _, ok := r.svc.Resolve(ev.Action); !ok {
		session.Reset()
		return r.mainMenu(session.Username, msgMemberGone)
	}
	session.Scratch.Recipient = ev.Action
	session.State = domain.StateEnteringAlias
	return aliasPrompt()
}

func (r *Router) repromptRecipients(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	return r.recipientList()
}

func aliasPrompt() contract.Response {
	return contract.Response{
		Text: msgWriteAlias,
		Choices: []contract.Choice{
			{Label: "Под своим именем", Action: ActionOwnName},
			backChoice(),
		},
	}
}

func (r *Router) enterAliasText(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	return r.acceptAlias(session, strings.TrimSpace(ev.Text))
}

func (r *Router) enterAliasAction(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	switch ev.Action {
	case ActionBack:
		session.State = domain.StateChoosingRecipient
		return r.recipientList()
	case ActionOwnName:
		// Shortcut: sign with the sender's own directory label,
		// subject to the same per-recipient uniqueness check.
		label, ok := r.svc.LabelOf(session.Username)
		if !ok {
			session.Reset()
			return r.mainMenu(session.Username, msgMemberGone)
		}
		return r.acceptAlias(session, label)
	default:
		return aliasPrompt()
	}
}

func (r *Router) acceptAlias(session *domain.Session, alias string) contract.Response {
	if err := domain.ValidateAlias(alias, r.aliasByteLimit); err != nil {
		r.log.Warn("Invalid alias", "username", session.Username, "err", err)
		if errors.Is(err, apperrors.ErrEmptyOrNonTextInput) {
			return contract.Response{Text: msgOnlyText + "\n\n" + msgWriteAlias, Choices: aliasPrompt().Choices}
		}
		return contract.Response{Text: "⚠️ " + err.Error(), Choices: aliasPrompt().Choices}
	}

	if r.aliasTakenOnRecipientBoard(session.Scratch.Recipient, alias) {
		return contract.Response{Text: msgAliasTaken, Choices: aliasPrompt().Choices}
	}

	session.Scratch.Alias = alias
	session.State = domain.StateTypingMessage
	return contract.Response{Text: msgEnterMessage, Choices: []contract.Choice{backChoice()}}
}

// aliasTakenOnRecipientBoard checks uniqueness against the chosen
// recipient's board only; the same alias on another board is fine.
func (r *Router) aliasTakenOnRecipientBoard(recipientLabel, alias string) bool {
	recipient, ok := r.svc.Resolve(recipientLabel)
	if !ok {
		return false
	}
	board, err := r.svc.BoardOf(recipient.Username)
	if err != nil {
		return false
	}
	return board.HasAlias(alias)
}

func (r *Router) collectChunk(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	if strings.TrimSpace(ev.Text) == "" {
		return contract.Response{Text: msgOnlyText + "\n\n" + msgEnterMessage}
	}
	session.Scratch.Chunks = append(session.Scratch.Chunks, domain.TextChunk(ev.Text))
	return contract.Response{Text: msgAddedChunk, Choices: saveCancelChoices()}
}

func saveCancelChoices() []contract.Choice {
	return []contract.Choice{
		{Label: "💾 Сохранить", Action: ActionSave},
		{Label: "❌ Отменить", Action: ActionCancel},
	}
}

func (r *Router) typingAction(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	switch ev.Action {
	case ActionSave:
		return r.commitEntry(session)
	case ActionCancel:
		// Transient confirmation overlay: the session stays in
		// TypingMessage, only the offered choices change.
		return contract.Response{
			Text: msgWarningLeave,
			Choices: []contract.Choice{
				{Label: "💾 Сохранить и выйти", Action: ActionSave},
				{Label: "🗑 Выйти без сохранения", Action: ActionDiscard},
				{Label: "✏️ Продолжить писать", Action: ActionResume},
			},
		}
	case ActionResume:
		return contract.Response{Text: msgEnterMessage, Choices: saveCancelChoices()}
	case ActionDiscard:
		session.Reset()
		return r.mainMenu(session.Username, msgMainMenu)
	case ActionBack:
		session.State = domain.StateEnteringAlias
		return aliasPrompt()
	default:
		return contract.Response{Text: msgEnterMessage, Choices: saveCancelChoices()}
	}
}

func (r *Router) commitEntry(session *domain.Session) contract.Response {
	if len(session.Scratch.Chunks) == 0 {
		return contract.Response{Text: msgEmptyMessage, Choices: saveCancelChoices()}
	}

	err := r.svc.SaveEntry(session.Scratch.Recipient, session.Scratch.Alias, session.Username, session.Scratch.Chunks)
	switch {
	case err == nil:
		r.log.Info("Entry committed", "username", session.Username, "recipient", session.Scratch.Recipient)
		session.Reset()
		return r.mainMenu(session.Username, msgMessageSent+"\n\n"+msgMainMenu)
	case errors.Is(err, apperrors.ErrDuplicateAlias):
		// Raced with another sender since the alias check: re-prompt
		// the alias, keeping the accumulated chunks.
		session.State = domain.StateEnteringAlias
		return contract.Response{Text: msgAliasTaken, Choices: aliasPrompt().Choices}
	case errors.Is(err, apperrors.ErrMemberNotFound):
		session.Reset()
		return r.mainMenu(session.Username, msgMemberGone)
	default:
		r.log.Error("Entry commit failed", "username", session.Username, "err", err)
		session.Reset()
		return r.mainMenu(session.Username, msgStoreFailure)
	}
}

// viewBoard lists who wrote on the caller's own board.
func (r *Router) viewBoard(session *domain.Session) contract.Response {
	board, err := r.svc.BoardOf(session.Username)
	if err != nil || len(board.Entries) == 0 {
		return r.mainMenu(session.Username, msgEmptyBoard)
	}
	return contract.Response{
		Text:    msgBoardHeader,
		Choices: choicesFromLabels(board.Aliases(), PrefixView),
	}
}

func (r *Router) viewEntry(session *domain.Session, alias string) contract.Response {
	board, err := r.svc.BoardOf(session.Username)
	if err != nil {
		return r.mainMenu(session.Username, msgEmptyBoard)
	}
	entry, ok := board.EntryByAlias(alias)
	if !ok {
		return r.mainMenu(session.Username, msgMemberGone)
	}

	var sb strings.Builder
	for _, part := range entry.Parts {
		sb.WriteString(part.Text)
		sb.WriteString("\n\n")
	}
	sb.WriteString(msgBoardFooter + " " + alias)
	return contract.Response{Text: sb.String(), Choices: []contract.Choice{backChoice()}}
}
