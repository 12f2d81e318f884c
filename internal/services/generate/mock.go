// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package generate

// emptyHTML is returned when the model produced no usable code.
const emptyHTML = `
<div class="min-h-screen flex items-center justify-center bg-white">
  <div class="p-8 rounded-xl border text-gray-700">
    <h2 class="text-xl font-bold mb-2">No code generated</h2>
    <p class="text-sm">Try another screenshot or switch mode.</p>
  </div>
</div>`

const mockHTML = `
<div class="min-h-screen bg-white">
  <header class="px-6 py-4 border-b">
    <h1 class="text-2xl font-bold">Generated UI</h1>
    <p class="text-sm text-gray-500">Mock output shown due to AI error.</p>
  </header>
  <main class="p-6 grid gap-6 md:grid-cols-2">
    <div class="border rounded-xl p-6 shadow-sm">
      <h2 class="text-lg font-semibold mb-2">Card Title</h2>
      <p class="text-gray-600">Placeholder content for preview.</p>
      <button class="mt-4 px-4 py-2 bg-blue-600 text-white rounded-lg">Primary Action</button>
    </div>
    <div class="border rounded-xl p-6 shadow-sm">
      <h2 class="text-lg font-semibold mb-2">Another Card</h2>
      <p class="text-gray-600">Use a valid API key to get real output.</p>
    </div>
  </main>
</div>`

const mockReact = `
import React from "react";

export default function GeneratedUI() {
  return (
    <div className="min-h-screen bg-white">
      <header className="px-6 py-4 border-b">
        <h1 className="text-2xl font-bold">Generated UI</h1>
        <p className="text-sm text-gray-500">Mock output shown due to AI error.</p>
      </header>
      <main className="p-6 grid gap-6 md:grid-cols-2">
        <div className="border rounded-xl p-6 shadow-sm">
          <h2 className="text-lg font-semibold mb-2">Card Title</h2>
          <p className="text-gray-600">Placeholder content for preview.</p>
          <button className="mt-4 px-4 py-2 bg-blue-600 text-white rounded-lg">Primary Action</button>
        </div>
        <div className="border rounded-xl p-6 shadow-sm">
          <h2 className="text-lg font-semibold mb-2">Another Card</h2>
          <p className="text-gray-600">Use a valid API key to get real output.</p>
        </div>
      </main>
    </div>
  );
}
`

func mockCode(mode string) string {
	if mode == ModeReact {
		return mockReact
	}
	return mockHTML
}
