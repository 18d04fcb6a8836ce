// Package filexfer implements the wire encoding for SSH File Transfer Protocol
// packets, versions 3 through 6 (draft-ietf-secsh-filexfer-02 through -13).
package filexfer
