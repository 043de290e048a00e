// internal/provider/symxchange/client.go
package symxchange

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"core-banking-service/config"
	"core-banking-service/internal/domain"
	"core-banking-service/internal/provider"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const (
	servicePathTransactions = "/TransactionsService"
	servicePathInquiry      = "/InquiryService"

	contentTypeXML = "text/xml; charset=utf-8"
	mockMessage    = "Mock response - SymXchange not configured"
)

// Client talks SOAP to a Jack Henry SymXchange endpoint. With no endpoint
// configured it answers every call with a mock success.
type Client struct {
	config     config.SymXchangeConfig
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

var _ provider.CoreBankingProvider = (*Client)(nil)

func NewClient(cfg config.SymXchangeConfig, logger *zap.Logger) *Client {
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		now:        time.Now,
	}
}

func (c *Client) GetName() string {
	return "symxchange"
}

// MockMode reports whether calls skip the network.
func (c *Client) MockMode() bool {
	return c.config.EndpointURL == ""
}

func (c *Client) adminCredentials() AdministrativeCredentials {
	return AdministrativeCredentials{
		Password:     c.config.AdminPassword,
		DeviceType:   c.config.DeviceType,
		DeviceNumber: c.config.DeviceNumber,
	}
}

// paymentCredentials picks the member's home banking identity when the
// payload carries one, the service account otherwise.
func (c *Client) paymentCredentials(req *domain.MakeLoanPaymentRequest) Credentials {
	if userID, password, ok := req.HomeBanking(); ok {
		return HomeBankingCredentials{UserID: userID, Password: password}
	}
	return c.adminCredentials()
}

// ============================================
// REQUEST BUILDERS
// ============================================

func (c *Client) BuildNewLoan(req *domain.NewLoanRequest) (*provider.Request, error) {
	messageID := newMessageID(prefixNewLoan)
	body, err := buildNewLoan(req, c.adminCredentials(), c.config.CheckIssuer, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to build newLoan envelope: %w", err)
	}
	return &provider.Request{
		Operation:   domain.OpNewLoan,
		MessageID:   messageID,
		ServicePath: servicePathTransactions,
		Body:        body,
	}, nil
}

func (c *Client) BuildLoanPayment(req *domain.MakeLoanPaymentRequest) (*provider.Request, error) {
	messageID := newMessageID(prefixLoanPayment)
	creds := c.paymentCredentials(req)
	body, err := buildLoanPayment(req, creds, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to build makeLoanPayment envelope: %w", err)
	}

	c.logger.Debug("loan payment envelope built",
		zap.String("message_id", messageID),
		zap.String("credentials", creds.Kind()))

	return &provider.Request{
		Operation:   domain.OpMakeLoanPayment,
		MessageID:   messageID,
		ServicePath: servicePathTransactions,
		Body:        body,
	}, nil
}

func (c *Client) BuildAccountInquiry(req *domain.GetAccountInfoRequest) (*provider.Request, error) {
	messageID := newMessageID(prefixAccountInquiry)
	body, err := buildAccountInquiry(req, c.adminCredentials(), messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to build getAccountInfo envelope: %w", err)
	}
	return &provider.Request{
		Operation:   domain.OpGetAccountInfo,
		MessageID:   messageID,
		ServicePath: servicePathInquiry,
		Body:        body,
	}, nil
}

func (c *Client) BuildTransfer(req *domain.TransferFundsRequest) (*provider.Request, error) {
	messageID := newMessageID(prefixTransfer)
	body, err := buildTransfer(req, c.adminCredentials(), messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to build transferFunds envelope: %w", err)
	}
	return &provider.Request{
		Operation:   domain.OpTransferFunds,
		MessageID:   messageID,
		ServicePath: servicePathTransactions,
		Body:        body,
	}, nil
}

// ============================================
// TRANSPORT
// ============================================

// Send posts the envelope once. No retries.
func (c *Client) Send(ctx context.Context, req *provider.Request) *domain.Result {
	if c.MockMode() {
		c.logger.Info("SymXchange not configured, returning mock response",
			zap.String("operation", string(req.Operation)),
			zap.String("message_id", req.MessageID))
		return c.mockResult()
	}

	url := strings.TrimSuffix(c.config.EndpointURL, "/") + req.ServicePath

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(req.Body))
	if err != nil {
		return c.connectionError(req, err)
	}
	httpReq.Header.Set("Content-Type", contentTypeXML)
	httpReq.Header.Set("SOAPAction", "")

	start := c.now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return c.connectionError(req, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("SymXchange returned non-2xx status",
			zap.String("operation", string(req.Operation)),
			zap.String("message_id", req.MessageID),
			zap.Int("status_code", resp.StatusCode))
		return domain.Failure(resp.StatusCode,
			fmt.Sprintf("HTTP Error: %d %s", resp.StatusCode, statusText(resp)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.connectionError(req, err)
	}

	result := ParseResponse(body)

	c.logger.Info("SymXchange response parsed",
		zap.String("operation", string(req.Operation)),
		zap.String("message_id", req.MessageID),
		zap.Bool("success", result.Success),
		zap.Int("status_code", result.StatusCode),
		zap.String("confirmation", result.ConfirmationNumber),
		zap.Duration("duration", c.now().Sub(start)))

	return result
}

// mockResult confirmation numbers are unique per call so reconciliation keyed
// on them behaves as it would against a real core.
func (c *Client) mockResult() *domain.Result {
	return &domain.Result{
		Success:            true,
		ConfirmationNumber: "MOCK-" + strconv.FormatInt(c.now().UnixMilli(), 10) + "-" + ulid.Make().String(),
		StatusCode:         0,
		Message:            mockMessage,
		Data:               map[string]interface{}{domain.DataKeyMock: true},
	}
}

// statusText is the reason phrase the server sent, falling back to the
// standard text for the code.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}

func (c *Client) connectionError(req *provider.Request, err error) *domain.Result {
	c.logger.Error("SymXchange request failed",
		zap.String("operation", string(req.Operation)),
		zap.String("message_id", req.MessageID),
		zap.Error(err))
	return domain.Failure(domain.StatusUnknown, fmt.Sprintf("Connection error: %v", err))
}
