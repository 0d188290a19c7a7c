package service

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/smtp"
	"net/url"
	"strings"
	"time"

	"quickqr/internal/config"
	"quickqr/internal/model"
	"quickqr/internal/repo"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ScanAlert — данные для нотификации владельца о скане.
type ScanAlert struct {
	QRID      string
	Lat, Lng  float64
	Accuracy  *float64
	IP        string
	UserAgent string
	Phone     string // получатель SMS, пустой = не слать
	Email     string // получатель письма, пустой = не слать
}

// NotifyResult — мягкие результаты рассылки: ошибки нотификаций не валят
// основной транзакционный результат запроса.
type NotifyResult struct {
	SMSSent    bool
	SMSError   string
	EmailSent  bool
	EmailError string
}

// Notifier отправляет уведомление о скане. Реализации обязаны укладываться
// в ограниченный таймаут.
type Notifier interface {
	NotifyScan(ctx context.Context, alert ScanAlert) NotifyResult
}

// UpstreamNotifier — Twilio REST для SMS и SMTP для email.
type UpstreamNotifier struct {
	cfg    *config.Config
	client *http.Client
	logger *zap.SugaredLogger

	twilioBaseURL string
}

func NewUpstreamNotifier(cfg *config.Config, logger *zap.SugaredLogger) *UpstreamNotifier {
	return &UpstreamNotifier{
		cfg:           cfg,
		client:        &http.Client{Timeout: cfg.UpstreamTimeout},
		logger:        logger,
		twilioBaseURL: "https://api.twilio.com",
	}
}

func (n *UpstreamNotifier) NotifyScan(ctx context.Context, alert ScanAlert) NotifyResult {
	var res NotifyResult
	maps := fmt.Sprintf("https://maps.google.com/?q=%v,%v", alert.Lat, alert.Lng)

	if alert.Phone != "" {
		if err := n.sendSMS(ctx, alert.Phone, "QuickQR: Your QR was scanned. Location: "+maps); err != nil {
			res.SMSError = err.Error()
			n.logger.Warnw("sms notification failed", "qr_id", alert.QRID, "error", err)
		} else {
			res.SMSSent = true
		}
	}

	if alert.Email != "" {
		if err := n.sendEmail(alert, maps); err != nil {
			res.EmailError = err.Error()
			n.logger.Warnw("email notification failed", "qr_id", alert.QRID, "error", err)
		} else {
			res.EmailSent = true
		}
	}

	return res
}

func (n *UpstreamNotifier) sendSMS(ctx context.Context, to, body string) error {
	if n.cfg.TwilioAccountSID == "" || n.cfg.TwilioAuthToken == "" || n.cfg.TwilioFromNumber == "" {
		return errors.New("twilio_env_missing")
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", n.twilioBaseURL, n.cfg.TwilioAccountSID)
	form := url.Values{
		"To":   {to},
		"From": {n.cfg.TwilioFromNumber},
		"Body": {body},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(n.cfg.TwilioAccountSID, n.cfg.TwilioAuthToken)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("twilio responded with %d", resp.StatusCode)
	}
	return nil
}

func (n *UpstreamNotifier) sendEmail(alert ScanAlert, maps string) error {
	if n.cfg.SMTPHost == "" || n.cfg.SMTPFrom == "" {
		return errors.New("smtp_env_missing")
	}

	accuracy := "n/a"
	if alert.Accuracy != nil {
		accuracy = fmt.Sprintf("%v", *alert.Accuracy)
	}
	body := fmt.Sprintf(
		"Your QR was scanned.\r\n\r\nLocation: %s\r\nCoordinates: %v, %v\r\nAccuracy: %s\r\nIP: %s\r\nUser-Agent: %s\r\n",
		maps, alert.Lat, alert.Lng, accuracy, alert.IP, alert.UserAgent,
	)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: QuickQR scan location\r\n\r\n%s",
		n.cfg.SMTPFrom, alert.Email, body)

	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPHost, n.cfg.SMTPPort)

	// smtp.SendMail не умеет таймауты: соединяемся сами, с дедлайном
	conn, err := net.DialTimeout("tcp", addr, n.cfg.UpstreamTimeout)
	if err != nil {
		return err
	}
	_ = conn.SetDeadline(time.Now().Add(n.cfg.UpstreamTimeout))

	c, err := smtp.NewClient(conn, n.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: n.cfg.SMTPHost}); err != nil {
			return err
		}
	}
	if n.cfg.SMTPUser != "" && n.cfg.SMTPPass != "" {
		auth := smtp.PlainAuth("", n.cfg.SMTPUser, n.cfg.SMTPPass, n.cfg.SMTPHost)
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(n.cfg.SMTPFrom); err != nil {
		return err
	}
	if err := c.Rcpt(alert.Email); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// ScanReportInput — отчёт устройства о геолокации скана.
type ScanReportInput struct {
	QRID      string
	Lat, Lng  float64
	Accuracy  *float64
	IP        string
	UserAgent string
	Referrer  string
}

// ReportService записывает usage-событие и best-effort уведомляет владельца.
type ReportService struct {
	designs  repo.DesignRepository
	lost     repo.LostFoundRepository
	notifier Notifier
	logger   *zap.SugaredLogger

	fallbackEmail string
}

func NewReportService(designs repo.DesignRepository, lost repo.LostFoundRepository, notifier Notifier, logger *zap.SugaredLogger, fallbackEmail string) *ReportService {
	return &ReportService{
		designs:       designs,
		lost:          lost,
		notifier:      notifier,
		logger:        logger,
		fallbackEmail: fallbackEmail,
	}
}

// Report пишет строку usage (жёсткая ошибка) и затем шлёт нотификации
// (мягкие ошибки, попадают в ответ, но не ломают отчёт).
func (s *ReportService) Report(ctx context.Context, in ScanReportInput) (NotifyResult, error) {
	loc := fmt.Sprintf("%v,%v", in.Lat, in.Lng)
	if in.Accuracy != nil {
		loc += fmt.Sprintf(" (±%dm)", int(*in.Accuracy))
	}

	if err := s.designs.RecordUsage(ctx, &model.QRUsage{
		ID:         uuid.NewString(),
		QRDesignID: in.QRID,
		IPAddress:  in.IP,
		UserAgent:  in.UserAgent,
		Referrer:   in.Referrer,
		Location:   loc,
	}); err != nil {
		return NotifyResult{}, err
	}

	alert := ScanAlert{
		QRID:      in.QRID,
		Lat:       in.Lat,
		Lng:       in.Lng,
		Accuracy:  in.Accuracy,
		IP:        in.IP,
		UserAgent: in.UserAgent,
		Email:     s.fallbackEmail,
	}

	// Контакты берём из lost-and-found записи, если она есть и заполнена
	if qr, err := s.lost.GetQR(ctx, in.QRID); err == nil {
		alert.Phone = qr.PhoneNumber
		if qr.Email != "" {
			alert.Email = qr.Email
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Warnw("contact lookup failed", "qr_id", in.QRID, "error", err)
	}

	return s.notifier.NotifyScan(ctx, alert), nil
}
