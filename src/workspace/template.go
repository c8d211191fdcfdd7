package workspace

import "github.com/Protocol-Lattice/vibe-code/src/project"

const starterHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>My App</title>
    <link rel="stylesheet" href="style.css">
</head>
<body>
    <h1>Hello, Vibe Coder!</h1>
    <script src="script.js"></script>
</body>
</html>`

const starterCSS = `body {
    font-family: sans-serif;
    background-color: #f0f0f0;
    color: #333;
    display: flex;
    justify-content: center;
    align-items: center;
    height: 100vh;
    margin: 0;
}`

const starterJS = `console.log("App started!");`

// StarterTemplate returns a three file web page that previews out of the box.
func StarterTemplate() project.Tree {
	return project.Tree{
		{Name: "index.html", Path: "index.html", Kind: project.KindFile, Content: starterHTML},
		{Name: "style.css", Path: "style.css", Kind: project.KindFile, Content: starterCSS},
		{Name: "script.js", Path: "script.js", Kind: project.KindFile, Content: starterJS},
	}
}
