package domain

import (
	"strings"
	"testing"
	"time"
)

func TestValidNickname(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"a", false},
		{"ab", true},
		{"小明", true},
		{"user_01", true},
		{strings.Repeat("a", 12), true},
		{strings.Repeat("a", 13), false},
		{strings.Repeat("好", 13), false},
		{"小明😀", false},
		{"hi!", false},
		{"a b", false},
		{"ｆｕｌｌ", false},
	}
	for _, tc := range cases {
		if got := ValidNickname(tc.in); got != tc.want {
			t.Fatalf("ValidNickname(%q) = %v, ожидали %v", tc.in, got, tc.want)
		}
	}
}

func TestDeriveRecipeName(t *testing.T) {
	cases := map[string]string{
		"红烧肉":                    "红烧肉",
		"菜名：番茄炒蛋\n鸡蛋 番茄":         "番茄炒蛋",
		"name: fried rice\nrice": "fried rice",
		"  清炒时蔬  \n做法":           "清炒时蔬",
		"红烧肉: 五花肉500g\n做法":       "红烧肉: 五花肉500g",
		"Title：糖醋排骨":             "糖醋排骨",
		"菜名：":                    "菜名：",
	}
	for in, want := range cases {
		if got := DeriveRecipeName(in); got != want {
			t.Fatalf("DeriveRecipeName(%q) = %q, ожидали %q", in, got, want)
		}
	}
}

func TestCategoryByKeyword(t *testing.T) {
	if c, ok := CategoryByKeyword(" 1 "); !ok || c != RecipeCategoryMeat {
		t.Fatalf("ожидали мясную категорию, получили %q", c)
	}
	if c, ok := CategoryByKeyword("蔬菜"); !ok || c != RecipeCategoryVeg {
		t.Fatalf("ожидали овощную категорию, получили %q", c)
	}
	if _, ok := CategoryByKeyword("3"); ok {
		t.Fatalf("не ожидали категорию для 3")
	}
}

func TestLedgerAdjustFloorsAtZero(t *testing.T) {
	var l CheckinLedger
	l.Adjust(15, "checkin", time.Now())
	applied := l.Adjust(-40, "penalty", time.Now())
	if l.TotalPoints != 0 {
		t.Fatalf("баланс ушёл в минус: %d", l.TotalPoints)
	}
	if applied != -15 {
		t.Fatalf("ожидали списание 15, получили %d", applied)
	}
	for i := 0; i < PointsLogLimit+5; i++ {
		l.Adjust(1, "bonus", time.Now())
	}
	if len(l.PointsLog) != PointsLogLimit {
		t.Fatalf("журнал не ограничен: %d", len(l.PointsLog))
	}
}

func TestLedgerHistoryBounded(t *testing.T) {
	var l CheckinLedger
	for i := 0; i < CheckinHistoryLimit+3; i++ {
		l.AddHistory(CheckinRecord{Date: time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02"), Points: 10})
	}
	if len(l.History) != CheckinHistoryLimit {
		t.Fatalf("история не ограничена: %d", len(l.History))
	}
	if l.History[0].Date != "2024-01-04" {
		t.Fatalf("ожидали вытеснение старых записей, первая %s", l.History[0].Date)
	}
}

func TestDisplayName(t *testing.T) {
	p := UserProfile{UserID: "oABCDEFGH"}
	if got := p.DisplayName(); got != "用户oABCDE" {
		t.Fatalf("неожиданное имя: %q", got)
	}
	p.Nickname = "小明"
	if p.DisplayName() != "小明" {
		t.Fatalf("ожидали ник")
	}
}
