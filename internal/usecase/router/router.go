package router

import (
	"strconv"
	"strings"
	"time"
)

// Command идентификатор встроенной команды.
type Command string

const (
	CmdCustomRule      Command = "custom_rule"
	CmdVerify          Command = "verify"
	CmdHelp            Command = "help"
	CmdRecipeMenu      Command = "recipe_menu"
	CmdRecipeList      Command = "recipe_list"
	CmdRecipeAdd       Command = "recipe_add"
	CmdRecipeRandom    Command = "recipe_random"
	CmdRecipeQuickAdd  Command = "recipe_quick_add"
	CmdRecipeDetail    Command = "recipe_detail"
	CmdWeather         Command = "weather"
	CmdWeatherCity     Command = "weather_city"
	CmdChangeCity      Command = "change_city"
	CmdPushSubscribe   Command = "push_subscribe"
	CmdPushUnsubscribe Command = "push_unsubscribe"
	CmdPushStatus      Command = "push_status"
	CmdCheckin         Command = "checkin"
	CmdPoints          Command = "points"
	CmdRanking         Command = "ranking"
	CmdCheckinHelp     Command = "checkin_help"
	CmdSetNickname     Command = "set_nickname"
	CmdViewNickname    Command = "view_nickname"
	CmdVIPInfo         Command = "vip_info"
	CmdNewChat         Command = "new_chat"
)

// Match результат маршрутизации.
type Match struct {
	Command Command
	// Arg остаток после префикса или шаблон пользовательского правила.
	Arg string
	// Index номер рецепта для CmdRecipeDetail.
	Index int
}

type input struct {
	raw   string
	lower string
	rules map[string]string
}

type matcher interface {
	match(in input) (Match, bool)
}

// customRule точное совпадение с таблицей правил оператора.
type customRule struct{}

func (customRule) match(in input) (Match, bool) {
	tmpl, ok := in.rules[in.raw]
	if !ok {
		return Match{}, false
	}
	return Match{Command: CmdCustomRule, Arg: tmpl}, true
}

// exactSet точное совпадение с набором ключевых слов; латиница без учёта регистра.
type exactSet struct {
	cmd  Command
	keys map[string]struct{}
}

func newExactSet(cmd Command, keys ...string) exactSet {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[strings.ToLower(k)] = struct{}{}
	}
	return exactSet{cmd: cmd, keys: set}
}

func (m exactSet) match(in input) (Match, bool) {
	if _, ok := m.keys[in.lower]; ok {
		return Match{Command: m.cmd}, true
	}
	return Match{}, false
}

// prefix совпадение по префиксу; parse проверяет остаток.
type prefix struct {
	cmd    Command
	prefix string
	parse  func(rest string) (Match, bool)
}

func (m prefix) match(in input) (Match, bool) {
	if !strings.HasPrefix(in.raw, m.prefix) {
		return Match{}, false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(in.raw, m.prefix))
	res, ok := m.parse(rest)
	if !ok {
		return Match{}, false
	}
	res.Command = m.cmd
	return res, true
}

// contains совпадение по подстроке без учёта регистра.
type contains struct {
	cmd    Command
	needle string
}

func (m contains) match(in input) (Match, bool) {
	if strings.Contains(in.lower, m.needle) {
		return Match{Command: m.cmd}, true
	}
	return Match{}, false
}

func nonEmpty(rest string) (Match, bool) {
	if rest == "" {
		return Match{}, false
	}
	return Match{Arg: rest}, true
}

func positiveIndex(rest string) (Match, bool) {
	if rest == "" || strings.ContainsAny(rest, " \t\n") {
		return Match{}, false
	}
	idx, err := strconv.Atoi(rest)
	if err != nil {
		return Match{}, false
	}
	return Match{Index: idx, Arg: rest}, true
}

// Router сопоставляет текст с командами в фиксированном порядке:
// правила оператора, точные ключевые слова, префиксы, подстроки.
type Router struct {
	matchers []matcher
}

// New создаёт маршрутизатор со встроенным набором команд.
func New() *Router {
	return &Router{matchers: []matcher{
		customRule{},

		newExactSet(CmdVerify, "验证", "身份验证", "vip", "认证"),
		newExactSet(CmdHelp, "帮助", "help", "?", "？"),
		newExactSet(CmdRecipeMenu, "菜谱"),
		newExactSet(CmdRecipeList, "查看菜谱"),
		newExactSet(CmdRecipeAdd, "记录菜谱"),
		newExactSet(CmdRecipeRandom, "随机菜谱"),
		newExactSet(CmdWeather, "天气", "今日天气", "查天气", "天气预报"),
		newExactSet(CmdChangeCity, "更换城市", "切换城市", "换城市", "修改城市"),
		newExactSet(CmdPushSubscribe, "订阅天气", "订阅天气推送", "开启天气推送"),
		newExactSet(CmdPushUnsubscribe, "取消订阅天气", "关闭天气推送", "取消天气推送"),
		newExactSet(CmdPushStatus, "天气推送状态", "我的天气订阅"),
		newExactSet(CmdCheckin, "签到", "打卡"),
		newExactSet(CmdPoints, "积分", "我的积分", "查积分"),
		newExactSet(CmdRanking, "积分排行", "排行榜", "积分榜"),
		newExactSet(CmdCheckinHelp, "签到说明", "签到规则", "积分说明"),
		newExactSet(CmdSetNickname, "设置昵称", "修改昵称", "改名", "改昵称"),
		newExactSet(CmdViewNickname, "我的昵称", "查看昵称"),
		newExactSet(CmdNewChat, "新对话"),

		prefix{cmd: CmdRecipeQuickAdd, prefix: "记录菜谱 ", parse: nonEmpty},
		prefix{cmd: CmdRecipeDetail, prefix: "菜谱 ", parse: positiveIndex},
		prefix{cmd: CmdWeatherCity, prefix: "天气 ", parse: nonEmpty},

		contains{cmd: CmdVIPInfo, needle: "我的vip"},
	}}
}

// Route возвращает первую подходящую команду. rules снимок пользовательских правил.
func (r *Router) Route(text string, rules map[string]string) (Match, bool) {
	in := input{raw: text, lower: strings.ToLower(text), rules: rules}
	for _, m := range r.matchers {
		if res, ok := m.match(in); ok {
			return res, true
		}
	}
	return Match{}, false
}

// RenderRule подставляет текущее время вместо {time}.
func RenderRule(tmpl string, now time.Time) string {
	return strings.ReplaceAll(tmpl, "{time}", now.Format("2006-01-02 15:04:05"))
}

var cancelKeywords = map[string]struct{}{"取消": {}, "退出": {}, "返回": {}}

// IsCancel сообщает, что текст прерывает текущий диалог.
func IsCancel(text string) bool {
	_, ok := cancelKeywords[strings.TrimSpace(text)]
	return ok
}
