package server

const homeHTML = `<!DOCTYPE html>
<html>
<head>
    <title>FinMate - Ask about your money</title>
    <style>
        body { font-family: sans-serif; max-width: 760px; margin: 2em auto; }
        pre { background: #f4f4f4; padding: 1em; white-space: pre-wrap; }
    </style>
</head>
<body>
    <h2>Ask a Question</h2>
    <form id="askForm">
        <label>Question:</label><br>
        <input type="text" id="question" name="question" size="60" required><br><br>
        <label>Mode:</label>
        <select id="mode" name="mode">
            <option value="chat">Chat (uses your statements and ledger)</option>
            <option value="plan">Plan and execute</option>
        </select><br><br>
        <button type="submit">Ask</button>
    </form>
    <h3>Answer:</h3>
    <pre id="answer"></pre>
    <script>
        let sessionID = sessionStorage.getItem('finmate_session') || '';
        document.getElementById('askForm').onsubmit = async function(e) {
            e.preventDefault();
            document.getElementById('answer').textContent = "Loading...";
            const question = document.getElementById('question').value;
            const mode = document.getElementById('mode').value;
            const response = await fetch('/ask', {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify({question, mode, session_id: sessionID})
            });
            const data = await response.json();
            if (data.session_id) {
                sessionID = data.session_id;
                sessionStorage.setItem('finmate_session', sessionID);
            }
            document.getElementById('answer').textContent = data.answer || data.error;
        }
    </script>
</body>
</html>
`
