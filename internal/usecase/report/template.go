package report

import "html/template"

// articleTemplate тело статьи; допускаются только инлайн-стили, которые
// поддерживает редактор черновиков.
var articleTemplate = template.Must(template.New("article").Parse(`
<section style="padding: 20px; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); border-radius: 10px; color: white; margin-bottom: 20px;">
    <h2 style="margin: 0 0 10px 0; font-size: 24px;">☀️ 早安！今天是{{.Date}} {{.Weekday}}</h2>
    <p style="margin: 0; font-size: 16px; opacity: 0.9;">📍 {{.City}}天气播报</p>
</section>

<section style="background: #f8f9fa; padding: 20px; border-radius: 10px; margin-bottom: 20px;">
    <h3 style="color: #333; margin: 0 0 15px 0; border-left: 4px solid #667eea; padding-left: 10px;">🌡️ 实时天气</h3>
    <table style="width: 100%; border-collapse: collapse;">
        {{- range .Rows}}
        <tr>
            <td style="padding: 10px 0; border-bottom: 1px solid #eee; color: #666;">{{.Label}}</td>
            <td style="padding: 10px 0; border-bottom: 1px solid #eee; color: #333; font-weight: bold; text-align: right;">{{.Value}}</td>
        </tr>
        {{- end}}
    </table>
</section>

<section style="background: #fff3cd; padding: 20px; border-radius: 10px; border-left: 4px solid #ffc107;">
    <h3 style="color: #856404; margin: 0 0 10px 0;">👔 今日穿衣建议</h3>
    <p style="color: #856404; margin: 0; line-height: 1.6;">{{.Advice}}</p>
</section>

<section style="text-align: center; padding: 20px; color: #999;">
    <p style="margin: 0;">💕 祝您今天心情愉快！</p>
    <p style="margin: 5px 0 0 0; font-size: 12px;">—— {{.Signature}} ——</p>
</section>
`))

type row struct {
	Label string
	Value string
}

type article struct {
	Date      string
	Weekday   string
	City      string
	Rows      []row
	Advice    string
	Signature string
}
