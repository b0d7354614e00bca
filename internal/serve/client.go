package serve

// LiveReloadEndpoint is the reserved path segment for the websocket
// used to trigger reloads when the sources change. Checked before
// static serving so no on-disk file can shadow it.
const LiveReloadEndpoint = "__livereload"

// LiveReloadPath is the full reserved route.
const LiveReloadPath = "/" + LiveReloadEndpoint

// ClientScriptPath is the reserved route for the reload client script.
// Renderers that do not inline their own client can emit
// <script src="/__livereload.js" defer></script> instead.
const ClientScriptPath = LiveReloadPath + ".js"

// reloadNotification is the single textual frame sent to a waiting
// client when a rebuild succeeds.
const reloadNotification = "reload"

// clientScript is the reload client served on ClientScriptPath. One
// notification means one reload; the fresh page opens a fresh
// connection. The server closes the socket after notifying, so the
// reconnect timer also covers editor-driven server restarts.
const clientScript = `(function() {
    'use strict';

    function connect() {
        var url = window.DOCSMITH_LIVERELOAD_URL ||
            ((location.protocol === 'https:' ? 'wss:' : 'ws:') + '//' + location.host + '/__livereload');
        var ws = new WebSocket(url);

        ws.onmessage = function() {
            location.reload();
        };

        ws.onclose = function() {
            setTimeout(connect, 1000);
        };
    }

    if (document.readyState === 'loading') {
        document.addEventListener('DOMContentLoaded', connect);
    } else {
        connect();
    }
})();
`
