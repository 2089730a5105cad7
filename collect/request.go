package collect

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
)

// 一次页面请求
type Request struct {
	URL    string
	Method string
}

func NewRequest(rawURL string) *Request {
	return &Request{URL: rawURL, Method: "GET"}
}

// 请求的唯一标识，用于分页去重
func (r *Request) Unique() string {
	block := md5.Sum([]byte(r.URL + r.Method))
	return hex.EncodeToString(block[:])
}

// 只接受http(s)绝对地址，其余情况重试也不会成功
func (r *Request) Check() error {
	u, err := url.Parse(r.URL)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid request url %q", r.URL)
	}
	return nil
}
