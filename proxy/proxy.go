package proxy

import (
	"errors"
	"net/http"
	"net/url"
	"sort"
	"sync/atomic"
)

type ProxyFunc func(*http.Request) (*url.URL, error)

type roundRobinSwitcher struct {
	proxyURLs []*url.URL
	index     uint32
}

// 按轮询索引依次返回代理地址
func (r *roundRobinSwitcher) GetProxy(pr *http.Request) (*url.URL, error) {
	if len(r.proxyURLs) == 0 {
		return nil, errors.New("empty proxy urls")
	}
	index := atomic.AddUint32(&r.index, 1) - 1
	u := r.proxyURLs[index%uint32(len(r.proxyURLs))]
	return u, nil
}

/*
输入代理地址列表，输出轮询调度的代理函数

任意一个地址解析失败都返回错误
*/
func RoundRobinProxySwitcher(proxyURLs ...string) (ProxyFunc, error) {
	if len(proxyURLs) < 1 {
		return nil, errors.New("proxy url list is empty")
	}
	urls, err := parseAll(proxyURLs)
	if err != nil {
		return nil, err
	}
	return (&roundRobinSwitcher{urls, 0}).GetProxy, nil
}

type schemeSwitcher struct {
	byScheme map[string]*url.URL
	fallback *url.URL
}

func (s *schemeSwitcher) GetProxy(pr *http.Request) (*url.URL, error) {
	if u, ok := s.byScheme[pr.URL.Scheme]; ok {
		return u, nil
	}
	// 返回nil表示直连
	return s.fallback, nil
}

/*
输入形如{"http": "...", "https": "..."}的代理配置，输出按请求协议选择代理的函数

键"all"作为未命中协议时的兜底；配置为空时返回nil，表示不使用代理
*/
func FromMap(proxies map[string]string) (ProxyFunc, error) {
	if len(proxies) == 0 {
		return nil, nil
	}
	s := &schemeSwitcher{byScheme: make(map[string]*url.URL, len(proxies))}
	keys := make([]string, 0, len(proxies))
	for k := range proxies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, scheme := range keys {
		u, err := url.Parse(proxies[scheme])
		if err != nil {
			return nil, err
		}
		if scheme == "all" {
			s.fallback = u
			continue
		}
		s.byScheme[scheme] = u
	}
	return s.GetProxy, nil
}

// 代理池非空时轮询使用其中的地址，否则按协议映射选择
func FromSettings(proxies map[string]string, pool []string) (ProxyFunc, error) {
	if len(pool) > 0 {
		return RoundRobinProxySwitcher(pool...)
	}
	return FromMap(proxies)
}

func parseAll(raw []string) ([]*url.URL, error) {
	urls := make([]*url.URL, len(raw))
	for i, u := range raw {
		parsed, err := url.Parse(u)
		if err != nil {
			return nil, err
		}
		urls[i] = parsed
	}
	return urls, nil
}
