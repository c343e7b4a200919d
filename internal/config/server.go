// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"net"
	"strings"
	"time"
)

const (
	// EnvBindInterface pins the host of a ":PORT" listen address.
	EnvBindInterface = "STEMSPLIT_BIND_INTERFACE"

	maxReadHeaderTimeout = 10 * time.Second
	minShutdownTimeout   = 3 * time.Second
)

// ServerConfig is the resolved configuration of the site listener.
type ServerConfig struct {
	ListenAddr string

	// ReadHeaderTimeout bounds the request line and headers only. The
	// file-selection handler replaces ReadTimeout with a deadline sized
	// from the upload limit.
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	// WriteTimeout is zero by default; event streams never finish writing.
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration
}

// ParseServerConfigForApp resolves the listener settings of cfg.
func ParseServerConfigForApp(cfg AppConfig) (ServerConfig, error) {
	listen, err := BindListenAddr(cfg.Listen, ParseString(EnvBindInterface, ""))
	if err != nil {
		return ServerConfig{}, fmt.Errorf("bind interface: %w", err)
	}

	rt := cfg.Server
	return ServerConfig{
		ListenAddr:        listen,
		ReadHeaderTimeout: min(rt.ReadTimeout, maxReadHeaderTimeout),
		ReadTimeout:       rt.ReadTimeout,
		WriteTimeout:      rt.WriteTimeout,
		IdleTimeout:       rt.IdleTimeout,
		MaxHeaderBytes:    rt.MaxHeaderBytes,
		ShutdownTimeout:   max(rt.ShutdownTimeout, minShutdownTimeout),
	}, nil
}

// BindListenAddr puts bind in front of a ":PORT" (or empty) listen address.
// bind is an IP, a hostname, or "if:<name>" for the first non-loopback IPv4
// of that interface. A listen address with a host is returned unchanged.
func BindListenAddr(listenAddr, bind string) (string, error) {
	if bind == "" || (listenAddr != "" && !strings.HasPrefix(listenAddr, ":")) {
		return listenAddr, nil
	}

	port := strings.TrimPrefix(listenAddr, ":")
	if port == "" {
		port = "0"
	}

	host := bind
	if name, ok := strings.CutPrefix(bind, "if:"); ok {
		ip, err := interfaceIPv4(name)
		if err != nil {
			return "", err
		}
		host = ip.String()
	}
	return net.JoinHostPort(host, port), nil
}

func interfaceIPv4(name string) (net.IP, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("resolve interface %q: %w", name, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, fmt.Errorf("list addrs for %q: %w", name, err)
	}
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip != nil && !ip.IsLoopback() && ip.To4() != nil {
			return ip, nil
		}
	}
	return nil, fmt.Errorf("no suitable IPv4 on interface %q", name)
}
