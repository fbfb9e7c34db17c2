package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fences-bot/contract"
	"fences-bot/domain"
	apperrors "fences-bot/errors"
)

// registerAdminTransitions wires the admin flow. Every transition here
// is additionally gated by is_admin in the router before dispatch.
func (r *Router) registerAdminTransitions() {
	r.register(domain.StateChoosingAction, contract.EventAction, r.chooseAdminAction)
	r.register(domain.StateChoosingRole, contract.EventAction, r.chooseRole)
	r.register(domain.StateAddingUsername, contract.EventText, r.addUsername)
	r.register(domain.StateAddingLabel, contract.EventText, r.addLabel)
	r.register(domain.StateRemovingUser, contract.EventAction, r.removeUser)
	r.register(domain.StateSettingAdminOn, contract.EventAction, r.setAdminOn)
	r.register(domain.StateSettingAdminOff, contract.EventAction, r.setAdminOff)
	r.register(domain.StateSettingExpiration, contract.EventText, r.setExpiration)
	r.register(domain.StateChoosingBroadcastScope, contract.EventAction, r.chooseBroadcastScope)
	r.register(domain.StateChoosingBroadcastRecipient, contract.EventAction, r.chooseBroadcastRecipient)
	r.register(domain.StateComposingBroadcast, contract.EventText, r.collectBroadcastText)
	r.register(domain.StateComposingBroadcast, contract.EventAttachment, r.collectBroadcastAttachment)
	r.register(domain.StateComposingBroadcast, contract.EventAction, r.broadcastAction)

	for _, state := range []domain.State{
		domain.StateChoosingRole, domain.StateRemovingUser,
		domain.StateSettingAdminOn, domain.StateSettingAdminOff,
		domain.StateChoosingBroadcastScope, domain.StateChoosingBroadcastRecipient,
	} {
		r.register(state, contract.EventText, r.rejectNonText(msgAdminPanel))
		r.register(state, contract.EventAttachment, r.rejectNonText(msgAdminPanel))
	}
	r.register(domain.StateAddingUsername, contract.EventAttachment, r.rejectNonText(msgEnterUsername))
	r.register(domain.StateAddingLabel, contract.EventAttachment, r.rejectNonText(msgEnterLabel))
	r.register(domain.StateSettingExpiration, contract.EventAttachment, r.rejectNonText(msgEnterEOL))
}

// rejectNonText re-prompts the given text for input kinds a state does
// not accept.
func (r *Router) rejectNonText(prompt string) transition {
	return func(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
		return contract.Response{Text: msgOnlyText + "\n\n" + prompt}
	}
}

func (r *Router) enterAdminFlow(session *domain.Session) contract.Response {
	if !r.svc.IsAdmin(session.Username) {
		return contract.Response{Text: msgNotAdmin}
	}
	session.Reset()
	session.State = domain.StateChoosingAction
	return adminMenu()
}

func adminMenu() contract.Response {
	return contract.Response{
		Text: msgAdminPanel,
		Choices: []contract.Choice{
			{Label: "➕ Добавить", Action: ActionAdminAdd},
			{Label: "➖ Удалить", Action: ActionAdminRemove},
			{Label: "⭐ Назначить админа", Action: ActionAdminPromote},
			{Label: "⬇️ Снять админа", Action: ActionAdminDemote},
			{Label: "⏳ Дата окончания", Action: ActionAdminEOL},
			{Label: "📣 Рассылка", Action: ActionAdminBroadcast},
			backChoice(),
		},
	}
}

func (r *Router) chooseAdminAction(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	switch ev.Action {
	case ActionAdminAdd:
		session.State = domain.StateChoosingRole
		return contract.Response{
			Text: msgChooseRole,
			Choices: []contract.Choice{
				{Label: "Админ", Action: ActionAddAdmin},
				{Label: "Участник", Action: ActionAddMember},
				backChoice(),
			},
		}
	case ActionAdminRemove:
		return r.listCandidates(session, domain.RoleAll, domain.StateRemovingUser, msgChooseToRemove, PrefixRemoveUser)
	case ActionAdminPromote:
		return r.listCandidates(session, domain.RoleMember, domain.StateSettingAdminOn, msgChooseToPromote, PrefixSetUser)
	case ActionAdminDemote:
		return r.listCandidates(session, domain.RoleAdmin, domain.StateSettingAdminOff, msgChooseToDemote, PrefixSetUser)
	case ActionAdminEOL:
		session.State = domain.StateSettingExpiration
		return contract.Response{Text: msgEnterEOL, Choices: []contract.Choice{backChoice()}}
	case ActionAdminBroadcast:
		session.State = domain.StateChoosingBroadcastScope
		return contract.Response{
			Text: msgChooseScope,
			Choices: []contract.Choice{
				{Label: "Всем", Action: ActionBroadcastAll},
				{Label: "Одному", Action: ActionBroadcastOne},
				backChoice(),
			},
		}
	case ActionBack:
		session.Reset()
		return r.mainMenu(session.Username, msgMainMenu)
	default:
		return adminMenu()
	}
}

// listCandidates shows the labels of the given role and moves to the
// target state, or stays on the menu when nobody qualifies.
func (r *Router) listCandidates(session *domain.Session, role domain.Role, next domain.State, prompt, prefix string) contract.Response {
	labels := r.svc.Labels(role)
	if len(labels) == 0 {
		return contract.Response{Text: msgNobodyToList, Choices: adminMenu().Choices}
	}
	session.State = next
	return contract.Response{Text: prompt, Choices: choicesFromLabels(labels, prefix)}
}

func (r *Router) chooseRole(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	switch ev.Action {
	case ActionAddAdmin, ActionAddMember:
		session.Scratch.PendingAdmin = ev.Action == ActionAddAdmin
		session.State = domain.StateAddingUsername
		return contract.Response{Text: msgEnterUsername}
	default:
		return r.backToAdminMenu(session)
	}
}

func (r *Router) addUsername(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	username := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ev.Text), "@"))
	if username == "" {
		return contract.Response{Text: msgOnlyText + "\n\n" + msgEnterUsername}
	}
	session.Scratch.PendingUsername = username
	session.State = domain.StateAddingLabel
	return contract.Response{Text: msgEnterLabel}
}

// addLabel finishes the add flow. Duplicate username or label keeps the
// admin on label entry with an inline error rather than restarting from
// the username.
func (r *Router) addLabel(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	label := strings.TrimSpace(ev.Text)

	err := r.svc.AddMember(session.Scratch.PendingUsername, label, session.Scratch.PendingAdmin)
	switch {
	case err == nil:
		role := "участник"
		if session.Scratch.PendingAdmin {
			role = "админ"
		}
		text := fmt.Sprintf("✅ Пользователь @%s добавлен как %s.", session.Scratch.PendingUsername, role)
		return r.finishAdminAction(session, text)
	case errors.Is(err, apperrors.ErrDuplicateUsername):
		return contract.Response{Text: msgDuplicateUser + "\n\n" + msgEnterLabel}
	case errors.Is(err, apperrors.ErrDuplicateLabel):
		return contract.Response{Text: msgDuplicateName + "\n\n" + msgEnterLabel}
	case errors.Is(err, apperrors.ErrAliasTooLong), errors.Is(err, apperrors.ErrInvalidCharacters), errors.Is(err, apperrors.ErrEmptyOrNonTextInput):
		return contract.Response{Text: "⚠️ " + err.Error() + "\n\n" + msgEnterLabel}
	default:
		r.log.Error("Add member failed", "username", session.Scratch.PendingUsername, "err", err)
		session.Reset()
		return r.mainMenu(session.Username, msgStoreFailure)
	}
}

func (r *Router) removeUser(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	if !strings.HasPrefix(ev.Action, PrefixRemoveUser) {
		return r.backToAdminMenu(session)
	}
	label := strings.TrimPrefix(ev.Action, PrefixRemoveUser)
	if err := r.svc.RemoveMember(label); err != nil {
		r.log.Error("Remove member failed", "label", label, "err", err)
		return r.finishAdminAction(session, msgStoreFailure)
	}
	return r.finishAdminAction(session, fmt.Sprintf("✅ Пользователь %s удалён.", label))
}

func (r *Router) setAdminOn(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	return r.flipAdminFlag(session, ev, true)
}

func (r *Router) setAdminOff(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	return r.flipAdminFlag(session, ev, false)
}

func (r *Router) flipAdminFlag(session *domain.Session, ev contract.Event, isAdmin bool) contract.Response {
	if !strings.HasPrefix(ev.Action, PrefixSetUser) {
		return r.backToAdminMenu(session)
	}
	label := strings.TrimPrefix(ev.Action, PrefixSetUser)

	err := r.svc.SetAdminFlag(label, isAdmin)
	switch {
	case err == nil:
		verb := "назначен админом"
		if !isAdmin {
			verb = "больше не админ"
		}
		return r.finishAdminAction(session, fmt.Sprintf("✅ Пользователь %s %s.", label, verb))
	case errors.Is(err, apperrors.ErrMemberNotFound):
		return r.finishAdminAction(session, msgMemberGone)
	default:
		r.log.Error("Set admin flag failed", "label", label, "err", err)
		return r.finishAdminAction(session, msgStoreFailure)
	}
}

// setExpiration parses the free-text timestamp; an invalid format
// re-prompts without leaving the state.
func (r *Router) setExpiration(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	err := r.svc.SetExpiration(strings.TrimSpace(ev.Text))
	switch {
	case err == nil:
		return r.finishAdminAction(session, "⏳ Дата окончания установлена.")
	case errors.Is(err, apperrors.ErrInvalidTimestamp):
		return contract.Response{Text: msgBadEOL, Choices: []contract.Choice{backChoice()}}
	default:
		r.log.Error("Set expiration failed", "err", err)
		session.Reset()
		return r.mainMenu(session.Username, msgStoreFailure)
	}
}

func (r *Router) chooseBroadcastScope(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	switch ev.Action {
	case ActionBroadcastAll:
		session.Scratch.BroadcastAll = true
		session.State = domain.StateComposingBroadcast
		return contract.Response{Text: msgComposeBC, Choices: saveCancelChoices()}
	case ActionBroadcastOne:
		session.State = domain.StateChoosingBroadcastRecipient
		return contract.Response{Text: msgChooseBCTarget, Choices: choicesFromLabels(r.svc.Labels(domain.RoleAll), PrefixBroadcastUser)}
	default:
		return r.backToAdminMenu(session)
	}
}

func (r *Router) chooseBroadcastRecipient(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	if !strings.HasPrefix(ev.Action, PrefixBroadcastUser) {
		return r.backToAdminMenu(session)
	}
	session.Scratch.BroadcastTo = strings.TrimPrefix(ev.Action, PrefixBroadcastUser)
	session.State = domain.StateComposingBroadcast
	return contract.Response{Text: msgComposeBC, Choices: saveCancelChoices()}
}

func (r *Router) collectBroadcastText(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	if strings.TrimSpace(ev.Text) == "" {
		return contract.Response{Text: msgOnlyText + "\n\n" + msgComposeBC}
	}
	session.Scratch.Chunks = append(session.Scratch.Chunks, domain.TextChunk(ev.Text))
	return contract.Response{Text: msgAddedChunk, Choices: saveCancelChoices()}
}

// Broadcasts accept rich content: each attachment is one independently
// typed chunk, accumulated exactly like text.
func (r *Router) collectBroadcastAttachment(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	session.Scratch.Chunks = append(session.Scratch.Chunks, domain.Chunk{
		Kind:    domain.ChunkAttachment,
		FileRef: ev.FileRef,
		Caption: ev.Caption,
		Mime:    ev.Mime,
	})
	return contract.Response{Text: msgAddedChunk, Choices: saveCancelChoices()}
}

func (r *Router) broadcastAction(ctx context.Context, session *domain.Session, ev contract.Event) contract.Response {
	switch ev.Action {
	case ActionSave:
		if len(session.Scratch.Chunks) == 0 {
			return contract.Response{Text: msgEmptyMessage, Choices: saveCancelChoices()}
		}
		report := r.dispatcher.Dispatch(ctx, session.Scratch.Chunks, session.Scratch.BroadcastTo, session.Scratch.BroadcastAll)
		if report.OK {
			return r.finishAdminAction(session, msgBroadcastOK)
		}
		text := fmt.Sprintf("⚠️ Не доставлено: %s", strings.Join(report.Failed, ", "))
		return r.finishAdminAction(session, text)
	case ActionCancel, ActionBack:
		return r.backToAdminMenu(session)
	default:
		return contract.Response{Text: msgComposeBC, Choices: saveCancelChoices()}
	}
}

// finishAdminAction clears the scratch and returns to the admin menu,
// success or failure alike.
func (r *Router) finishAdminAction(session *domain.Session, text string) contract.Response {
	session.Reset()
	session.State = domain.StateChoosingAction
	return contract.Response{Text: text, Choices: adminMenu().Choices}
}

func (r *Router) backToAdminMenu(session *domain.Session) contract.Response {
	session.Reset()
	session.State = domain.StateChoosingAction
	return adminMenu()
}
