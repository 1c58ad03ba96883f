package platform

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shiptrack/backend/internal/domain/staging"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// Parser errors
var (
	ErrEmptyFile           = errors.New("uploaded file is empty")
	ErrMissingHeader       = errors.New("export has no header row")
	ErrNoRecognizedColumns = errors.New("export has neither a tracking number nor an order ID column")
)

// Column aliases across platform export layouts. The first header that
// matches wins, so more specific names come first.
var (
	trackingAliases = []string{"运单号", "快递单号", "物流单号", "快递运单号", "tracking number", "tracking_number"}
	orderAliases    = []string{"主订单编号", "订单编号", "订单号", "子订单编号", "order id", "order_id"}
	customerAliases = []string{"买家会员名", "买家昵称", "收件人", "收货人姓名", "客户", "customer"}
	itemAliases     = []string{"宝贝标题", "选购商品", "商品名称", "货品名称", "商品标题", "item name"}
	qtyAliases      = []string{"宝贝数量", "商品数量", "购买数量", "数量", "quantity"}
	totalAliases    = []string{"买家实际支付金额", "实付金额", "实付款", "订单应付金额", "总价", "total price"}
	statusAliases   = []string{"订单状态", "交易状态", "状态", "order status"}
	labelAliases    = []string{"订单标签", "配送方式", "发货方式", "物流服务", "delivery label"}
)

// channelSignatures maps layout-specific headers to the channel the
// export came from. Taobao exports carry member-name and item-title
// columns no other platform uses; douyin exports carry theirs.
var channelSignatures = []struct {
	header  string
	channel string
}{
	{"宝贝标题", "taobao"},
	{"买家会员名", "taobao"},
	{"主订单编号", "taobao"},
	{"选购商品", "douyin"},
	{"抖音订单号", "douyin"},
	{"买家昵称", "douyin"},
}

// specialLabelMarkers are delivery-label substrings that mark a
// specialized same-day or instant channel subtype worth preserving
// through attribution.
var specialLabelMarkers = []string{"当日达", "小时达", "同城", "闪送"}

// CSVParser converts platform CSV exports into normalized order lines.
// Handles UTF-8 (with or without BOM) and GBK/GB18030 encoded files.
type CSVParser struct {
	logger *zap.Logger
}

// NewCSVParser creates a platform CSV parser
func NewCSVParser(logger *zap.Logger) *CSVParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVParser{logger: logger}
}

// columns holds the resolved column index per field, -1 when the export
// does not carry the column
type columns struct {
	tracking int
	order    int
	customer int
	item     int
	qty      int
	total    int
	status   int
	label    int
}

// Parse converts one uploaded export into normalized lines
func (p *CSVParser) Parse(_ context.Context, raw []byte) (*staging.ParsedImport, error) {
	decoded, err := decode(raw)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	cols := resolveColumns(header)
	if cols.tracking < 0 && cols.order < 0 {
		return nil, ErrNoRecognizedColumns
	}

	parsed := &staging.ParsedImport{
		ChannelGuess: guessChannel(header),
	}

	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			// A malformed row never aborts the batch
			p.logger.Warn("skipping malformed export row",
				zap.Int("row", rowNum),
				zap.Error(err),
			)
			continue
		}
		line, ok := toImportLine(record, cols)
		if !ok {
			continue
		}
		parsed.Lines = append(parsed.Lines, line)
	}

	p.logger.Debug("parsed platform export",
		zap.String("channel_guess", parsed.ChannelGuess),
		zap.Int("lines", len(parsed.Lines)),
	)
	return parsed, nil
}

// decode strips a UTF-8 BOM and transcodes GBK/GB18030 content. Platform
// export tools in the Chinese ecommerce ecosystem still emit GBK.
func decode(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyFile
	}
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyFile
	}
	if utf8.Valid(raw) {
		return raw, nil
	}
	decoded, _, err := transform.Bytes(simplifiedchinese.GB18030.NewDecoder(), raw)
	if err != nil {
		return nil, fmt.Errorf("failed to transcode export: %w", err)
	}
	return decoded, nil
}

func resolveColumns(header []string) columns {
	index := func(aliases []string) int {
		for _, alias := range aliases {
			for i, h := range header {
				if strings.EqualFold(h, alias) {
					return i
				}
			}
		}
		return -1
	}
	return columns{
		tracking: index(trackingAliases),
		order:    index(orderAliases),
		customer: index(customerAliases),
		item:     index(itemAliases),
		qty:      index(qtyAliases),
		total:    index(totalAliases),
		status:   index(statusAliases),
		label:    index(labelAliases),
	}
}

func guessChannel(header []string) string {
	for _, sig := range channelSignatures {
		for _, h := range header {
			if h == sig.header {
				return sig.channel
			}
		}
	}
	return ""
}

func toImportLine(record []string, cols columns) (staging.ImportLine, bool) {
	get := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	line := staging.ImportLine{
		TrackingNumber: get(cols.tracking),
		OrderID:        get(cols.order),
		Customer:       get(cols.customer),
		LineItemName:   get(cols.item),
		OrderStatus:    get(cols.status),
	}
	if line.TrackingNumber == "" && line.OrderID == "" {
		return staging.ImportLine{}, false
	}

	line.Quantity = parseAmount(get(cols.qty), decimal.NewFromInt(1))
	line.TotalPrice = parseAmount(get(cols.total), decimal.Zero)
	line.SpecialLabel = specialLabel(get(cols.label))
	return line, true
}

// parseAmount cleans currency symbols and thousands separators before
// parsing. Unparsable values fall back to the default rather than
// aborting the row.
func parseAmount(s string, fallback decimal.Decimal) decimal.Decimal {
	cleaned := strings.NewReplacer("¥", "", "￥", "", ",", "", " ", "").Replace(s)
	if cleaned == "" {
		return fallback
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return fallback
	}
	return amount
}

// specialLabel keeps a delivery label only when it marks a specialized
// channel subtype
func specialLabel(label string) string {
	for _, marker := range specialLabelMarkers {
		if strings.Contains(label, marker) {
			return label
		}
	}
	return ""
}

// Ensure CSVParser implements PlatformParser
var _ staging.PlatformParser = (*CSVParser)(nil)
