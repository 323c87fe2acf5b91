package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/infra/metrics"
)

// ErrNoProvider ни один источник погоды не ответил.
var ErrNoProvider = errors.New("weather: no provider answered")

// FailureReply ответ пользователю, когда погоду узнать не удалось.
const FailureReply = "😢 获取天气信息失败，请稍后再试~"

// Service опрашивает источники погоды по порядку до первого успешного ответа.
type Service struct {
	log       zerolog.Logger
	providers []domain.WeatherProvider
	timeout   time.Duration
}

// NewService создаёт сервис. Порядок providers задаёт приоритет.
func NewService(log zerolog.Logger, timeout time.Duration, providers ...domain.WeatherProvider) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{log: log, providers: providers, timeout: timeout}
}

// Lookup возвращает погоду первого ответившего источника.
func (s *Service) Lookup(ctx context.Context, q domain.WeatherQuery) (domain.WeatherReport, error) {
	var errs []error
	for _, p := range s.providers {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		report, err := p.Lookup(callCtx, q)
		cancel()
		metrics.ObserveProvider(p.Name(), "weather", err)
		if err != nil {
			s.log.Warn().Err(err).Str("provider", p.Name()).Str("city", q.City).Msg("источник погоды не ответил")
			errs = append(errs, err)
			continue
		}
		report.Provider = p.Name()
		if report.City == "" {
			report.City = q.City
		}
		return report, nil
	}
	return domain.WeatherReport{}, errors.Join(append([]error{ErrNoProvider}, errs...)...)
}

// ForCity погода для сохранённого или введённого города.
func (s *Service) ForCity(ctx context.Context, city domain.WeatherCity) (domain.WeatherReport, error) {
	return s.Lookup(ctx, domain.WeatherQuery{City: city.Name, QueryKey: city.QueryKey})
}

// Report полный текст ответа на запрос погоды; при отказе источников текст ошибки.
func (s *Service) Report(ctx context.Context, city domain.WeatherCity) string {
	report, err := s.ForCity(ctx, city)
	if err != nil {
		return FailureReply
	}
	return FormatReport(report)
}

// ReportByLocation погода по координатам геоточки. Если подпись содержит город,
// сначала пробуется он.
func (s *Service) ReportByLocation(ctx context.Context, lat, lon float64, label string) string {
	q := domain.WeatherQuery{Latitude: lat, Longitude: lon, HasCoords: true}
	if name, ok := ParseCityFromLabel(label); ok {
		if city, ok := ResolveCity(name); ok {
			q.City, q.QueryKey = city.Name, city.QueryKey
		}
	}
	report, err := s.Lookup(ctx, q)
	if err != nil {
		return FailureReply
	}
	text := FormatReport(report)
	if label != "" {
		text = fmt.Sprintf("📍 您的位置：%s\n\n%s", label, text)
	}
	return text
}

// Greeting компактный блок утреннего приветствия.
func (s *Service) Greeting(ctx context.Context, city domain.WeatherCity) (string, error) {
	report, err := s.ForCity(ctx, city)
	if err != nil {
		return "", err
	}
	advice := ClothingAdvice(report.TempC, report.Condition)
	return fmt.Sprintf("\n\n---\n🌤️ 今日天气 | %s\n🌡️ %d°C | %s\n👔 %s",
		city.Name, report.TempC, report.Condition, advice.Compact()), nil
}

// FormatReport текст ответа с погодой, советом по одежде и предупреждениями.
func FormatReport(r domain.WeatherReport) string {
	var b strings.Builder
	if r.City != "" {
		fmt.Fprintf(&b, "🌤 今日天气 | %s\n\n", r.City)
	} else {
		b.WriteString("🌤 今日天气\n\n")
	}
	fmt.Fprintf(&b, "📍 当前天气：%s\n", r.Condition)
	fmt.Fprintf(&b, "🌡 实时温度：%d°C（体感%d°C）\n", r.TempC, r.FeelsLikeC)
	fmt.Fprintf(&b, "💧 相对湿度：%d%%", r.Humidity)
	if r.WindDir != "" {
		fmt.Fprintf(&b, "\n🌬 风力风向：%s %s级", r.WindDir, r.WindScale)
	}
	b.WriteString("\n")
	b.WriteString(ClothingAdvice(r.TempC, r.Condition).Format())
	if tips := Tips(r.TempC, r.Condition); len(tips) > 0 {
		b.WriteString("\n\n💡 温馨提示\n")
		b.WriteString(strings.Join(tips, "\n"))
	}
	return b.String()
}
