package wsfeed

import "time"

func WithPingInterval(d time.Duration) func(*Feed) {
	return func(f *Feed) {
		f.pingInterval = d
	}
}

func WithWriteTimeout(d time.Duration) func(*Feed) {
	return func(f *Feed) {
		f.writeTimeout = d
	}
}

func OnConnect(fn func(remoteAddr string)) func(*Feed) {
	return func(f *Feed) {
		f.onConnect = fn
	}
}
