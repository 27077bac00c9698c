// Package engine contains the game rules and the idle loop of one player's session.
//
// ARCHITECTURAL RULE: all state lives behind Engine's mutex. Operations queue events while
// holding it and hand them to the EventLog only after releasing it, so listeners (the
// websocket hub, the save worker) may call back into the engine.
package engine
