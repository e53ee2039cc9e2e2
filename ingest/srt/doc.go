// Package srt moves transport streams over SRT (Secure Reliable Transport):
// listener mode (Server) accepts publishers, caller mode (Dial, Caller)
// pulls from a remote SRT listener, and Publish sends a file to one.
package srt
