package utils

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetRealIP extracts the real client IP address from the request.
// It handles various proxy scenarios and header configurations.
//
// Priority order:
// 1. X-Real-IP header (most specific, set by reverse proxies like Nginx)
// 2. X-Forwarded-For header (comma-separated list, first IP is the client)
// 3. Gin's ClientIP() (fallback for direct connections)
func GetRealIP(c *gin.Context) string {
	// Try X-Real-IP header first (most specific)
	realIP := c.Request.Header.Get("X-Real-IP")
	if realIP != "" && isValidIP(realIP) && !isPrivateIP(net.ParseIP(realIP)) {
		return strings.TrimSpace(realIP)
	}

	// Try X-Forwarded-For header (comma-separated list)
	// Format: X-Forwarded-For: client, proxy1, proxy2
	// We want the first NON-PRIVATE IP (the real client)
	forwarded := c.Request.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		ips := strings.Split(forwarded, ",")
		for _, ipStr := range ips {
			clientIP := strings.TrimSpace(ipStr)
			if isValidIP(clientIP) {
				ip := net.ParseIP(clientIP)
				if !isPrivateIP(ip) && !IsLocalhost(clientIP) {
					return clientIP
				}
			}
		}
		// If all IPs are private, return the first valid one
		if len(ips) > 0 {
			clientIP := strings.TrimSpace(ips[0])
			if isValidIP(clientIP) {
				return clientIP
			}
		}
	}

	// Fallback to Gin's ClientIP (handles RemoteAddr)
	return c.ClientIP()
}

// isValidIP checks if the given string is a valid IP address
func isValidIP(ip string) bool {
	return net.ParseIP(ip) != nil
}

// GetUserAgent extracts the User-Agent header from the request
func GetUserAgent(c *gin.Context) string {
	ua := c.Request.UserAgent()
	if ua == "" {
		return "Unknown"
	}
	return ua
}

// IsLocalhost checks if an IP address is localhost
func IsLocalhost(ip string) bool {
	return ip == "127.0.0.1" || ip == "::1" || ip == "localhost"
}

// isPrivateIP checks if an IP is in a private range
func isPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}

	privateRanges := []string{
		"10.0.0.0/8",     // Class A private
		"172.16.0.0/12",  // Class B private
		"192.168.0.0/16", // Class C private
	}

	for _, cidr := range privateRanges {
		_, subnet, _ := net.ParseCIDR(cidr)
		if subnet.Contains(ip) {
			return true
		}
	}

	return false
}
