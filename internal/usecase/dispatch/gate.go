package dispatch

import (
	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/usecase/router"
)

// DenyReason причина отказа в доступе к команде.
type DenyReason string

const ReasonNotVIP DenyReason = "not_vip"

// Denied структурированный отказ.
type Denied struct {
	Command router.Command
	Reason  DenyReason
}

// Decision результат проверки доступа.
type Decision struct {
	Allowed bool
	Denied  Denied
}

type capability int

const (
	capPublic capability = iota
	capVIP
)

// requirements команды, доступные только VIP. Остальные публичные.
var requirements = map[router.Command]capability{
	router.CmdRecipeAdd:      capVIP,
	router.CmdRecipeQuickAdd: capVIP,
	router.CmdPushSubscribe:  capVIP,
}

// authorize проверяет доступ к команде один раз перед её выполнением.
func authorize(cmd router.Command, profile domain.UserProfile) Decision {
	if requirements[cmd] == capVIP && !profile.IsVIP() {
		return Decision{Denied: Denied{Command: cmd, Reason: ReasonNotVIP}}
	}
	return Decision{Allowed: true}
}

// Reply текст отказа для пользователя.
func (d Denied) Reply() string {
	if d.Command == router.CmdPushSubscribe {
		return textPushVIPOnly
	}
	return textRecipeVIPOnly
}
