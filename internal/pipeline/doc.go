// Package pipeline is the in-process network the spy attaches to.
//
// Discovery announcements and samples travel over a pubsub.Bus. The Pipeline
// subscribes to the discovery topics, records what it hears in a
// discovery.Database, and hands out data subscriptions for topics admitted by
// the current AllowedTopicList. The Simulator plays the part of remote
// publishers and the Watcher reloads the allowed topics when the
// configuration file changes.
package pipeline
