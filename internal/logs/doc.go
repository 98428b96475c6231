// Package logs reads the daemon log file for `narrator logs`.
//
// Last returns the trailing lines of a file with bounded memory and the byte
// offset where reading stopped. Follow polls from that offset and hands each
// new line to a callback until its context ends, restarting from the top when
// the file shrinks underneath it. Match narrows output to one job's records in
// either the console or JSON log format.
package logs
