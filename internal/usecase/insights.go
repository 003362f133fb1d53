package usecase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"adsreporter/internal/domain"
	"adsreporter/pkg/logger"
	"adsreporter/pkg/metrics"
)

const (
	InsightMissingKey = "Vui lòng cấu hình API Key để sử dụng tính năng phân tích AI."
	InsightFailed     = "Đã xảy ra lỗi khi kết nối với Gemini AI. Vui lòng kiểm tra API Key."
	InsightEmpty      = "Không thể tạo phân tích vào lúc này."

	insightTopCampaigns = 3
)

// InsightsService asks a text model for a short performance review. It
// always returns displayable text, falling back to fixed messages.
type InsightsService struct {
	generator domain.TextGenerator
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

// NewInsightsService accepts a nil generator when no API key is configured.
func NewInsightsService(generator domain.TextGenerator, logger *logger.Logger, metrics *metrics.Metrics) *InsightsService {
	return &InsightsService{
		generator: generator,
		logger:    logger,
		metrics:   metrics,
	}
}

func (s *InsightsService) Summarize(ctx context.Context, m domain.DashboardMetrics, campaigns []domain.Campaign) string {
	if s.generator == nil {
		s.metrics.RecordInsight("missing_key")
		return InsightMissingKey
	}

	start := time.Now()
	text, err := s.generator.Generate(ctx, BuildInsightPrompt(m, campaigns))
	if err != nil {
		s.metrics.RecordInsight("error")
		s.logger.WithContext(ctx).WithError(err).Error("Gemini API error")
		return InsightFailed
	}

	text = strings.TrimSpace(text)
	if text == "" {
		s.metrics.RecordInsight("empty")
		return InsightEmpty
	}

	s.metrics.RecordInsight("success")
	s.logger.WithContext(ctx).WithField("duration", time.Since(start)).Info("Generated marketing insights")
	return text
}

// BuildInsightPrompt renders the Vietnamese analyst prompt for m and the
// leading campaigns.
func BuildInsightPrompt(m domain.DashboardMetrics, campaigns []domain.Campaign) string {
	p := message.NewPrinter(language.Vietnamese)
	money := func(v float64) string {
		return p.Sprint(number.Decimal(v, number.MaxFractionDigits(0)))
	}

	var b strings.Builder
	b.WriteString("Đóng vai trò là một chuyên gia Marketing Facebook Ads cao cấp.\n")
	b.WriteString("Hãy phân tích các số liệu hiệu suất hiện tại sau đây và đưa ra nhận xét ngắn gọn, súc tích bằng tiếng Việt.\n")
	b.WriteString("Tập trung vào tính hiệu quả chi phí (CPR), tỷ lệ chuyển đổi và xu hướng.\n\n")

	b.WriteString("Số liệu tổng quan:\n")
	b.WriteString("- Chi tiêu: " + money(m.Spend) + " VNĐ\n")
	b.WriteString("- Số tin nhắn (Conversations): " + plain(m.Conversations) + "\n")
	b.WriteString("- Số khách hàng (Leads): " + plain(m.Leads) + "\n")
	b.WriteString("- Tỷ lệ chuyển đổi (Mess -> Lead): " + plain(m.ConversionRate) + "%\n")
	b.WriteString("- CTR: " + plain(m.CTR) + "%\n")
	b.WriteString("- CPC: " + money(m.CPC) + " VNĐ\n\n")

	b.WriteString("Top chiến dịch:\n")
	for i, c := range campaigns {
		if i == insightTopCampaigns {
			break
		}
		b.WriteString("- " + c.Name + ": Tiêu " + money(c.Spend) + "đ, " + plain(c.Results) + " kết quả\n")
	}

	b.WriteString("\nĐịnh dạng đầu ra: Markdown. Sử dụng bullet points. Đưa ra 3 lời khuyên cụ thể để tối ưu ngay lập tức.\n")
	return b.String()
}

func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
