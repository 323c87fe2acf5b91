package router

import (
	"testing"
	"time"
)

func TestRoutePriority(t *testing.T) {
	r := New()
	cases := []struct {
		text  string
		rules map[string]string
		cmd   Command
		arg   string
		index int
	}{
		{text: "帮助", cmd: CmdHelp},
		{text: "HELP", cmd: CmdHelp},
		{text: "VIP", cmd: CmdVerify},
		{text: "？", cmd: CmdHelp},
		{text: "帮助", rules: map[string]string{"帮助": "自定义"}, cmd: CmdCustomRule, arg: "自定义"},
		{text: "菜谱", cmd: CmdRecipeMenu},
		{text: "菜谱 3", cmd: CmdRecipeDetail, arg: "3", index: 3},
		{text: "记录菜谱", cmd: CmdRecipeAdd},
		{text: "记录菜谱 红烧肉 荤", cmd: CmdRecipeQuickAdd, arg: "红烧肉 荤"},
		{text: "天气", cmd: CmdWeather},
		{text: "天气 上海", cmd: CmdWeatherCity, arg: "上海"},
		{text: "取消订阅天气", cmd: CmdPushUnsubscribe},
		{text: "查看我的VIP信息", cmd: CmdVIPInfo},
		{text: "新对话", cmd: CmdNewChat},
	}
	for _, tc := range cases {
		m, ok := r.Route(tc.text, tc.rules)
		if !ok {
			t.Fatalf("%q: ожидали совпадение", tc.text)
		}
		if m.Command != tc.cmd || m.Arg != tc.arg || m.Index != tc.index {
			t.Fatalf("%q: неожиданный результат %+v", tc.text, m)
		}
	}
}

func TestRouteInvalidRemainderFallsThrough(t *testing.T) {
	r := New()
	for _, text := range []string{"菜谱 abc", "菜谱 1 2", "天气 ", "今天天气真好", "你好"} {
		if m, ok := r.Route(text, nil); ok {
			t.Fatalf("%q: не ожидали совпадение, получили %+v", text, m)
		}
	}
}

func TestRenderRule(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	if got := RenderRule("现在是 {time}", now); got != "现在是 2024-05-01 08:30:00" {
		t.Fatalf("неожиданная подстановка: %q", got)
	}
}

func TestIsCancel(t *testing.T) {
	for _, s := range []string{"取消", " 退出 ", "返回"} {
		if !IsCancel(s) {
			t.Fatalf("%q должно отменять", s)
		}
	}
	if IsCancel("取消订阅天气") {
		t.Fatalf("не ожидали отмену")
	}
}
