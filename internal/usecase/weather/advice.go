package weather

import (
	"fmt"
	"strings"
)

// Advice рекомендация по одежде для температуры и погоды.
type Advice struct {
	Level   string
	Emoji   string
	Clothes string
	Tip     string
	Extras  []string
}

type band struct {
	min     int
	level   string
	emoji   string
	clothes string
	tip     string
}

// bands упорядочены по убыванию нижней границы.
var bands = []band{
	{30, "炎热", "🩳", "短袖、短裤/短裙、凉鞋", "天气炎热，穿着清凉透气的衣物，注意防晒！"},
	{26, "热", "👕", "短袖、薄长裤/裙子", "天气较热，选择轻薄透气的衣服~"},
	{22, "舒适", "👔", "短袖/薄长袖、长裤", "温度舒适，穿着轻便即可~"},
	{18, "微凉", "🧥", "长袖衬衫、薄外套、长裤", "早晚温差大，建议带件薄外套~"},
	{14, "凉", "🧥", "卫衣/毛衣、外套、长裤", "天气转凉，注意添衣保暖~"},
	{10, "冷", "🧣", "毛衣、厚外套/风衣、长裤", "天气较冷，注意保暖！"},
	{5, "寒冷", "🧤", "厚毛衣、羽绒服/棉衣、保暖裤", "天气寒冷，做好保暖措施！"},
	{0, "严寒", "🧣", "羽绒服、保暖内衣、围巾手套帽子", "天气严寒，全副武装再出门！"},
}

var freezing = band{level: "极寒", emoji: "❄️", clothes: "厚羽绒服、保暖内衣裤、围巾帽子手套、雪地靴", tip: "极寒天气，尽量减少外出！"}

// ClothingAdvice подбирает одежду по температуре и добавляет поправки на дождь, снег, ветер и солнце.
func ClothingAdvice(tempC int, condition string) Advice {
	b := freezing
	for _, candidate := range bands {
		if tempC >= candidate.min {
			b = candidate
			break
		}
	}
	advice := Advice{Level: b.level, Emoji: b.emoji, Clothes: b.clothes, Tip: b.tip}

	cond := strings.ToLower(condition)
	if strings.Contains(cond, "雨") || strings.Contains(cond, "rain") {
		advice.Extras = append(advice.Extras, "☔ 有雨，建议穿防水外套，带好雨伞")
	}
	if strings.Contains(cond, "雪") || strings.Contains(cond, "snow") {
		advice.Extras = append(advice.Extras, "❄️ 有雪，穿防滑保暖的鞋子")
	}
	if strings.Contains(cond, "风") || strings.Contains(cond, "wind") {
		advice.Extras = append(advice.Extras, "💨 风大，穿防风外套")
	}
	sunny := strings.Contains(cond, "晴") || strings.Contains(cond, "sunny") || strings.Contains(cond, "clear")
	if sunny && tempC >= 25 {
		advice.Extras = append(advice.Extras, "☀️ 阳光强烈，注意防晒")
	}
	return advice
}

// Format полный блок для ответа на запрос погоды.
func (a Advice) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n👔 穿衣建议（%s %s）\n推荐穿着：%s\n💡 %s", a.Emoji, a.Level, a.Clothes, a.Tip)
	for _, extra := range a.Extras {
		b.WriteString("\n")
		b.WriteString(extra)
	}
	return b.String()
}

// Compact однострочный вариант для приветствия и ежедневного отчёта.
func (a Advice) Compact() string {
	line := fmt.Sprintf("%s %s：%s。%s", a.Emoji, a.Level, a.Clothes, a.Tip)
	if len(a.Extras) > 0 {
		line += " " + strings.Join(a.Extras, " ")
	}
	return line
}

// Tips короткие предупреждения по погоде.
func Tips(tempC int, condition string) []string {
	cond := strings.ToLower(condition)
	var tips []string
	if strings.Contains(cond, "雨") || strings.Contains(cond, "rain") {
		tips = append(tips, "☔ 今天有雨，出门记得带伞！")
	}
	if strings.Contains(cond, "雪") || strings.Contains(cond, "snow") {
		tips = append(tips, "❄️ 今天有雪，注意保暖和路滑！")
	}
	switch {
	case tempC >= 35:
		tips = append(tips, "🔥 高温预警！注意防暑降温，多喝水！")
	case tempC >= 30:
		tips = append(tips, "☀️ 天气较热，注意防晒补水！")
	case tempC <= 0:
		tips = append(tips, "🥶 气温很低，注意保暖防冻！")
	case tempC <= 10:
		tips = append(tips, "🧥 天气较冷，多穿点衣服！")
	}
	return tips
}
