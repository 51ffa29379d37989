// Package topics holds the registry of topics discovered on the network.
// Entries are keyed by topic name and the first descriptor seen for a name wins.
package topics
