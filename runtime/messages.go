package runtime

// Action payloads carried by structured callback events.
const (
	ActionWrite   = "write"
	ActionView    = "view"
	ActionAdmin   = "admin"
	ActionBack    = "back"
	ActionSave    = "save"
	ActionCancel  = "cancel"
	ActionResume  = "collect_msg"
	ActionDiscard = "try_cancel"
	ActionOwnName = "own_label"

	ActionAdminAdd       = "admin_add"
	ActionAddAdmin       = "add_admin"
	ActionAddMember      = "add_member"
	ActionAdminRemove    = "admin_remove_member"
	ActionAdminPromote   = "admin_promote"
	ActionAdminDemote    = "admin_demote"
	ActionAdminEOL       = "admin_eol"
	ActionAdminBroadcast = "admin_broadcast"
	ActionBroadcastAll   = "bc_all"
	ActionBroadcastOne   = "bc_one"

	PrefixRemoveUser    = "rm_user:"
	PrefixSetUser       = "set_user:"
	PrefixBroadcastUser = "bc_user:"
	PrefixView          = "view:"
)

// User-facing texts.
const (
	msgMainMenu        = "Что вы хотите сделать?"
	msgSelectRecipient = "На чьем заборчике будем писать?"
	msgWriteAlias      = "Представься?"
	msgEnterMessage    = "Введите сообщение:"
	msgMessageSent     = "💾 Заборчик сохранён!"
	msgAddedChunk      = "✏️ Сообщение добавлено. Продолжай писать или нажми «💾 Сохранить»."
	msgWarningLeave    = "⚠️ Точно отменить отправку? Все несохранённые сбщ будут утеряны"

	msgEmptyBoard   = "Пока ваш заборчик пуст"
	msgEmptyMessage = "❌ Сообщение пустое. Напиши что-нибудь."
	msgBoardHeader  = "Вот кто вам написал"
	msgBoardFooter  = "Это были все сообщения от пользователя:"

	msgAccessDenied  = "🚫 Доступ запрещен! Кажется ты залез не в свой отряд"
	msgNotAdmin      = "❌ У вас нет прав администратора."
	msgUnknown       = "🧐 Либо я тебя не понял, либо где-то ошибся\n\n"
	msgOnlyText      = "⚠️ Йоу, здесь допускается только текстовое сообщение. Стикеры, аудио, и иной контент недопустим"
	msgExpired       = "⏳ Заборчики закрыты: время вышло. Писать больше нельзя."
	msgStoreFailure  = "😖 Что-то сломалось. Попробуй ещё раз с главного меню."
	msgDuplicateName = "❌ Такое отображаемое имя уже используется"
	msgDuplicateUser = "❌ Такой username уже есть"
	msgAliasTaken    = "❌ Это имя уже занято на этом заборчике. Выбери другое."
	msgMemberGone    = "❌ Пользователь не найден."

	msgAdminPanel      = "Панель управления"
	msgChooseRole      = "Кем будет новый участник?"
	msgEnterUsername   = "Введите username (без @):"
	msgEnterLabel      = "Введите отображаемое имя:"
	msgChooseToRemove  = "Выберите пользователя для удаления:"
	msgChooseToPromote = "Кого назначить администратором?"
	msgChooseToDemote  = "У кого забрать права администратора?"
	msgEnterEOL        = "Введите дату окончания (дд.мм.гггг чч:мм:сс):"
	msgBadEOL          = "❌ Не могу разобрать дату. Формат: дд.мм.гггг чч:мм:сс"
	msgChooseScope     = "Кому отправить рассылку?"
	msgChooseBCTarget  = "Выберите получателя:"
	msgComposeBC       = "Отправляй текст или вложения, затем «💾 Сохранить»."
	msgBroadcastOK     = "📣 Рассылка доставлена всем."
	msgNobodyToList    = "❌ Здесь пока никого нет."
)
