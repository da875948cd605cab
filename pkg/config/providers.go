package config

import (
	"errors"
	"sort"
)

// ErrUnknownProvider reports a provider key missing from the registry.
var ErrUnknownProvider = errors.New("unknown email provider")

// Provider describes the fixed connection settings for a known
// consumer email service.
type Provider struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	IMAPServer string `json:"imap_server"`
	IMAPPort   int    `json:"imap_port"`
	SMTPServer string `json:"smtp_server"`
	SMTPPort   int    `json:"smtp_port"`
}

// providers is the built-in registry. Entries are static data, never
// persisted and never fetched from the network.
var providers = map[string]Provider{
	"qq":      {Key: "qq", Name: "QQ Mail", IMAPServer: "imap.qq.com", IMAPPort: 993, SMTPServer: "smtp.qq.com", SMTPPort: 465},
	"163":     {Key: "163", Name: "NetEase 163 Mail", IMAPServer: "imap.163.com", IMAPPort: 993, SMTPServer: "smtp.163.com", SMTPPort: 465},
	"126":     {Key: "126", Name: "NetEase 126 Mail", IMAPServer: "imap.126.com", IMAPPort: 993, SMTPServer: "smtp.126.com", SMTPPort: 465},
	"sina":    {Key: "sina", Name: "Sina Mail", IMAPServer: "imap.sina.com", IMAPPort: 993, SMTPServer: "smtp.sina.com", SMTPPort: 465},
	"aliyun":  {Key: "aliyun", Name: "Aliyun Mail", IMAPServer: "imap.aliyun.com", IMAPPort: 993, SMTPServer: "smtp.aliyun.com", SMTPPort: 465},
	"outlook": {Key: "outlook", Name: "Outlook", IMAPServer: "outlook.office365.com", IMAPPort: 993, SMTPServer: "smtp.office365.com", SMTPPort: 587},
	"gmail":   {Key: "gmail", Name: "Gmail", IMAPServer: "imap.gmail.com", IMAPPort: 993, SMTPServer: "smtp.gmail.com", SMTPPort: 587},
}

// LookupProvider returns the registry entry for key.
func LookupProvider(key string) (Provider, bool) {
	p, ok := providers[key]
	return p, ok
}

// Providers returns all registry entries sorted by key.
func Providers() []Provider {
	out := make([]Provider, 0, len(providers))
	for _, p := range providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
