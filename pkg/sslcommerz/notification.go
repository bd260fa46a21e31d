package sslcommerz

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// IPNNotification is the subset of the gateway's form post this service acts on.
type IPNNotification struct {
	Status        string
	TransactionID string
	ValidationID  string
	Amount        string
	Currency      string
	BankTranID    string
	CardType      string
	TranDate      string
	VerifySign    string
	VerifyKey     string
}

func NotificationFromValues(v url.Values) *IPNNotification {
	return &IPNNotification{
		Status:        v.Get("status"),
		TransactionID: v.Get("tran_id"),
		ValidationID:  v.Get("val_id"),
		Amount:        v.Get("amount"),
		Currency:      v.Get("currency"),
		BankTranID:    v.Get("bank_tran_id"),
		CardType:      v.Get("card_type"),
		TranDate:      v.Get("tran_date"),
		VerifySign:    v.Get("verify_sign"),
		VerifyKey:     v.Get("verify_key"),
	}
}

func (n *IPNNotification) IsValid() bool {
	return n.Status == StatusValid || n.Status == StatusValidated
}

// GatewayData flattens the raw form for storage on the payment record.
func GatewayData(v url.Values) map[string]any {
	out := make(map[string]any, len(v))
	for key, values := range v {
		if key == "store_passwd" {
			continue
		}
		if len(values) == 1 {
			out[key] = values[0]
		} else {
			out[key] = values
		}
	}
	return out
}

// VerifySignature checks verify_sign over the fields named in verify_key.
// Posts without a signature are left to out-of-band validation.
func (c *Client) VerifySignature(v url.Values) error {
	sign, keys := v.Get("verify_sign"), v.Get("verify_key")
	if sign == "" || keys == "" {
		return nil
	}
	if Sign(v, c.storePassword) != strings.ToLower(sign) {
		return ErrSignatureMismatch
	}
	return nil
}

// Sign computes the md5 verify_sign the gateway attaches to its posts.
func Sign(v url.Values, storePassword string) string {
	fields := map[string]string{}
	for _, key := range strings.Split(v.Get("verify_key"), ",") {
		key = strings.TrimSpace(key)
		if key != "" {
			fields[key] = v.Get(key)
		}
	}
	fields["store_passwd"] = md5Hex(storePassword)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, fields[k]))
	}
	return md5Hex(strings.Join(pairs, "&"))
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
