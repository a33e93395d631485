package marketplace

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/tidwall/gjson"

	"github.com/ogulcanaydogan/price-guardian/pkg/model"
)

const (
	getItemsPath   = "/paapi5/getitems"
	getItemsTarget = "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.GetItems"
	signingService = "ProductAdvertisingAPI"
	maxBodySize    = 1 << 20
)

var (
	// ErrLookup is matched by every LookupError.
	ErrLookup = errors.New("product lookup failed")
	// ErrNoItems means the marketplace returned no matching item.
	ErrNoItems = errors.New("no items returned")
	// ErrMissingField means an expected response field was absent.
	ErrMissingField = errors.New("missing field in response")
)

// LookupError wraps every failure of a product lookup.
type LookupError struct {
	ProductID string
	Err       error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %s: %v", e.ProductID, e.Err)
}

func (e *LookupError) Unwrap() []error { return []error{ErrLookup, e.Err} }

// APIError is an error reported by the Product Advertising API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("marketplace returned status %d", e.Status)
	}
	return fmt.Sprintf("marketplace returned status %d: %s: %s", e.Status, e.Code, e.Message)
}

// Credentials are the Product Advertising API keys.
type Credentials struct {
	AccessKey    string
	SecretKey    string
	AssociateTag string
}

// Options tune a Client. The zero value targets the region's production host.
type Options struct {
	// Endpoint overrides the scheme and host, e.g. for a test server.
	Endpoint   string
	HTTPClient *http.Client
	Now        func() time.Time
}

// Client looks up items through the PA-API 5.0 GetItems operation.
type Client struct {
	creds    Credentials
	region   Region
	endpoint string
	signer   *v4.Signer
	client   *http.Client
	now      func() time.Time
}

// NewClient creates a product lookup client for one region.
func NewClient(creds Credentials, region Region, opts Options) *Client {
	c := &Client{
		creds:    creds,
		region:   region,
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		signer:   v4.NewSigner(),
		client:   opts.HTTPClient,
		now:      opts.Now,
	}
	if c.endpoint == "" {
		c.endpoint = "https://" + region.Host
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: 10 * time.Second}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

type getItemsRequest struct {
	ItemIDs     []string `json:"ItemIds"`
	ItemIDType  string   `json:"ItemIdType"`
	PartnerTag  string   `json:"PartnerTag"`
	PartnerType string   `json:"PartnerType"`
	Marketplace string   `json:"Marketplace"`
	Resources   []string `json:"Resources"`
}

// Lookup fetches the title and first listing price of a product.
// productID may be an ASIN or a product URL. Exactly one request is made.
func (c *Client) Lookup(ctx context.Context, productID string) (*model.ProductSnapshot, error) {
	snap, err := c.lookup(ctx, productID)
	if err != nil {
		return nil, &LookupError{ProductID: productID, Err: err}
	}
	return snap, nil
}

func (c *Client) lookup(ctx context.Context, productID string) (*model.ProductSnapshot, error) {
	asin, err := ParseASIN(productID)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(getItemsRequest{
		ItemIDs:     []string{asin},
		ItemIDType:  "ASIN",
		PartnerTag:  c.creds.AssociateTag,
		PartnerType: "Associates",
		Marketplace: c.region.Marketplace,
		Resources:   []string{"ItemInfo.Title", "Offers.Listings.Price"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+getItemsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Encoding", "amz-1.0")
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("X-Amz-Target", getItemsTarget)
	if err := c.sign(ctx, req, body); err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if gjson.ValidBytes(data) {
			apiErr.Code = gjson.GetBytes(data, "Errors.0.Code").String()
			apiErr.Message = gjson.GetBytes(data, "Errors.0.Message").String()
		}
		return nil, apiErr
	}

	return parseGetItems(asin, data)
}

// sign adds SigV4 headers covering every header already set on req.
func (c *Client) sign(ctx context.Context, req *http.Request, body []byte) error {
	creds := aws.Credentials{
		AccessKeyID:     c.creds.AccessKey,
		SecretAccessKey: c.creds.SecretKey,
	}
	sum := sha256.Sum256(body)
	err := c.signer.SignHTTP(ctx, creds, req, hex.EncodeToString(sum[:]), signingService, c.region.AWSRegion, c.now().UTC())
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	return nil
}

func parseGetItems(asin string, data []byte) (*model.ProductSnapshot, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON response")
	}
	res := gjson.ParseBytes(data)

	item := res.Get("ItemsResult.Items.0")
	if !item.Exists() {
		if code := res.Get("Errors.0.Code"); code.Exists() {
			return nil, fmt.Errorf("%w: %s: %s", ErrNoItems, code.String(), res.Get("Errors.0.Message").String())
		}
		return nil, ErrNoItems
	}

	title := item.Get("ItemInfo.Title.DisplayValue")
	if !title.Exists() || title.String() == "" {
		return nil, fmt.Errorf("%w: ItemInfo.Title.DisplayValue", ErrMissingField)
	}

	amount := item.Get("Offers.Listings.0.Price.Amount")
	if !amount.Exists() || amount.Type != gjson.Number {
		return nil, fmt.Errorf("%w: Offers.Listings[0].Price.Amount", ErrMissingField)
	}

	snap := &model.ProductSnapshot{
		ASIN:          asin,
		Title:         title.String(),
		Price:         amount.Float(),
		Currency:      item.Get("Offers.Listings.0.Price.Currency").String(),
		DetailPageURL: item.Get("DetailPageURL").String(),
	}
	if id := item.Get("ASIN").String(); id != "" {
		snap.ASIN = id
	}
	return snap, nil
}
